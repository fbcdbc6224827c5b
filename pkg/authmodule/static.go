package authmodule

import "crypto/subtle"

// Static is a minimal Module backed by a single configured credential. It
// exists so the process can boot and exercise the rest of the control
// plane without a real PAM/directory backend wired in; production
// deployments are expected to supply their own Module implementation
// through the same interface.
type Static struct {
	UserName string
	Domain   string
	Password string
}

// Authenticate reports success only for an exact match against the
// configured credential; authUserName/authDomain echo what was presented
// since Static has no backend-side identity normalization to apply.
func (s Static) Authenticate(userName, domain, password string) (bool, string, string, error) {
	ok := subtle.ConstantTimeCompare([]byte(userName), []byte(s.UserName)) == 1 &&
		subtle.ConstantTimeCompare([]byte(domain), []byte(s.Domain)) == 1 &&
		subtle.ConstantTimeCompare([]byte(password), []byte(s.Password)) == 1
	return ok, userName, domain, nil
}
