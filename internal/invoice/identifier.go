package invoice

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/cleared-dev/finimport/internal/textnorm"
)

// IdentifierKind says how an invoice identifier was interpreted.
type IdentifierKind string

const (
	KindURL       IdentifierKind = "url"
	KindAccessKey IdentifierKind = "access_key"
	KindUnknown   IdentifierKind = "unknown"
)

// AccessKeyLength is the number of digits in an NFe access key.
const AccessKeyLength = 44

// Validation is the outcome of checking an invoice identifier. A failed
// check is a normal result, not an error.
type Validation struct {
	Valid     bool           `json:"valid"`
	Kind      IdentifierKind `json:"kind"`
	AccessKey string         `json:"accessKey,omitempty"`
	Reason    string         `json:"reason,omitempty"`
}

// taxAuthorityDomains are the state and federal tax authority domains that
// host NFe/NFCe consultation pages. Subdomains are accepted.
var taxAuthorityDomains = []string{
	"fazenda.gov.br",
	"fazenda.sp.gov.br",
	"fazenda.rj.gov.br",
	"fazenda.mg.gov.br",
	"fazenda.pr.gov.br",
	"fazenda.df.gov.br",
	"sef.sc.gov.br",
	"sefaz.rs.gov.br",
	"svrs.rs.gov.br",
	"sefaz.ba.gov.br",
	"sefaz.pe.gov.br",
	"sefaz.ce.gov.br",
	"sefaz.go.gov.br",
	"sefaz.ms.gov.br",
	"sefaz.mt.gov.br",
	"sefaz.am.gov.br",
	"sefa.pa.gov.br",
	"sefaz.al.gov.br",
	"sefaz.se.gov.br",
	"sefaz.pb.gov.br",
	"set.rn.gov.br",
	"sefaz.pi.gov.br",
	"sefaz.ma.gov.br",
	"sefaz.to.gov.br",
	"sefaz.es.gov.br",
	"sefin.ro.gov.br",
	"sefaz.ac.gov.br",
	"sefaz.rr.gov.br",
	"sefaz.ap.gov.br",
}

// ValidateIdentifier checks a consultation URL or a bare access key.
// URLs must be http(s) on an allow-listed tax authority host. Access keys
// must have exactly 44 digits once non-digits are removed.
func ValidateIdentifier(s string) Validation {
	s = strings.TrimSpace(s)
	if s == "" {
		return Validation{Kind: KindUnknown, Reason: "empty identifier"}
	}
	if strings.Contains(s, "://") {
		return validateURL(s)
	}

	digits := textnorm.Digits(s)
	if digits == "" {
		return Validation{Kind: KindUnknown, Reason: "neither a url nor an access key"}
	}
	if len(digits) != AccessKeyLength {
		return Validation{Kind: KindAccessKey, Reason: fmt.Sprintf("access key has %d digits, want %d", len(digits), AccessKeyLength)}
	}
	return Validation{Valid: true, Kind: KindAccessKey, AccessKey: digits}
}

func validateURL(s string) Validation {
	u, err := url.Parse(s)
	if err != nil {
		return Validation{Kind: KindURL, Reason: "malformed url"}
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return Validation{Kind: KindURL, Reason: fmt.Sprintf("unsupported scheme %q", u.Scheme)}
	}
	host := strings.ToLower(u.Hostname())
	if host == "" {
		return Validation{Kind: KindURL, Reason: "missing host"}
	}
	if !allowedHost(host) {
		return Validation{Kind: KindURL, Reason: fmt.Sprintf("host %s is not a tax authority domain", host)}
	}

	v := Validation{Valid: true, Kind: KindURL}
	if key, ok := accessKeyFromQuery(u.Query()); ok {
		v.AccessKey = key
	}
	return v
}

func allowedHost(host string) bool {
	for _, d := range taxAuthorityDomains {
		if host == d || strings.HasSuffix(host, "."+d) {
			return true
		}
	}
	return false
}

// AccessKeyFromURL extracts the access key from an allow-listed
// consultation URL. NFCe QR codes carry it as the first '|' field of p=.
func AccessKeyFromURL(s string) (string, bool) {
	v := ValidateIdentifier(s)
	if !v.Valid || v.Kind != KindURL || v.AccessKey == "" {
		return "", false
	}
	return v.AccessKey, true
}

func accessKeyFromQuery(q url.Values) (string, bool) {
	for _, param := range []string{"p", "chNFe", "chave"} {
		raw := q.Get(param)
		if raw == "" {
			continue
		}
		first, _, _ := strings.Cut(raw, "|")
		if digits := textnorm.Digits(first); len(digits) == AccessKeyLength {
			return digits, true
		}
	}
	return "", false
}

// AccessKeyInfo is the decoded layout of a 44-digit access key.
type AccessKeyInfo struct {
	StateCode    string `json:"stateCode"` // IBGE UF code
	YearMonth    string `json:"yearMonth"` // AAMM
	CNPJ         string `json:"cnpj"`
	Model        string `json:"model"` // 55 NFe, 65 NFCe
	Series       string `json:"series"`
	Number       string `json:"number"`
	EmissionType string `json:"emissionType"`
	Code         string `json:"code"`
	CheckDigit   int    `json:"checkDigit"`
}

// DescribeAccessKey splits a key into its fields and verifies the mod-11
// check digit.
func DescribeAccessKey(key string) (AccessKeyInfo, error) {
	digits := textnorm.Digits(key)
	if len(digits) != AccessKeyLength {
		return AccessKeyInfo{}, fmt.Errorf("access key has %d digits, want %d", len(digits), AccessKeyLength)
	}

	dv, _ := strconv.Atoi(digits[43:])
	if want := checkDigit(digits[:43]); dv != want {
		return AccessKeyInfo{}, fmt.Errorf("check digit %d does not match computed %d", dv, want)
	}

	return AccessKeyInfo{
		StateCode:    digits[0:2],
		YearMonth:    digits[2:6],
		CNPJ:         digits[6:20],
		Model:        digits[20:22],
		Series:       digits[22:25],
		Number:       digits[25:34],
		EmissionType: digits[34:35],
		Code:         digits[35:43],
		CheckDigit:   dv,
	}, nil
}

// checkDigit computes the NFe modulo-11 digit with weights 2..9 applied
// right to left.
func checkDigit(body string) int {
	sum, weight := 0, 2
	for i := len(body) - 1; i >= 0; i-- {
		sum += int(body[i]-'0') * weight
		weight++
		if weight > 9 {
			weight = 2
		}
	}
	rest := sum % 11
	if rest < 2 {
		return 0
	}
	return 11 - rest
}
