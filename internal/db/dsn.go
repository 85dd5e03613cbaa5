package db

import (
	"fmt"
	"net/url"
	"strings"
)

// Redact returns dsn with any password replaced, for log lines.
// Supports postgres:// and postgresql:// URLs and bare host/db strings.
func Redact(dsn string) (string, error) {
	if dsn == "" {
		return "", fmt.Errorf("empty DSN")
	}
	if !strings.Contains(dsn, "://") {
		dsn = "postgres://" + dsn
	}
	u, err := url.Parse(dsn)
	if err != nil {
		return "", err
	}
	if u.Scheme != "postgres" && u.Scheme != "postgresql" {
		return "", fmt.Errorf("unsupported DSN scheme %q", u.Scheme)
	}
	if _, ok := u.User.Password(); ok {
		u.User = url.UserPassword(u.User.Username(), "xxxxx")
	}
	return u.String(), nil
}
