package sheets

import "strings"

// Credential is a service-account identity used to sign JWT assertions.
// It is request-scoped: nothing in this package persists it.
type Credential struct {
	ClientEmail string
	PrivateKey  string
}

func (c Credential) Normalized() Credential {
	c.ClientEmail = strings.TrimSpace(c.ClientEmail)
	c.PrivateKey = strings.TrimSpace(c.PrivateKey)
	return c
}

// Complete reports whether both halves of the credential are present.
func (c Credential) Complete() bool {
	c = c.Normalized()
	return c.ClientEmail != "" && c.PrivateKey != ""
}

// Strategy identifies which credential source a fetch will use.
type Strategy string

const (
	// StrategyRequestCredential uses the credential supplied on the request.
	StrategyRequestCredential Strategy = "request_credential"
	// StrategyConfigCredential uses the deployment's default credential.
	StrategyConfigCredential Strategy = "config_credential"
	// StrategyPublicExport skips authentication and reads the public CSV
	// export of the first sheet tab.
	StrategyPublicExport Strategy = "public_export"
)

// ResolveStrategy picks the credential source for a fetch. Request-supplied
// credentials win over the configured default; with neither present the
// public export path is used rather than failing outright.
func ResolveStrategy(req FetchRequest, fallback Credential) (Strategy, Credential) {
	requestCred := Credential{
		ClientEmail: req.ServiceAccountEmail,
		PrivateKey:  req.ServiceAccountKey,
	}.Normalized()
	if requestCred.Complete() {
		return StrategyRequestCredential, requestCred
	}

	fallback = fallback.Normalized()
	if fallback.Complete() {
		return StrategyConfigCredential, fallback
	}

	return StrategyPublicExport, Credential{}
}
