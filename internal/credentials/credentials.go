package credentials

import (
	"bufio"
	"fmt"
	"os"
	"strings"
)

// Credentials holds AWS credentials used to fetch remote disk images
type Credentials struct {
	AccessKeyID     string
	SecretAccessKey string
	SessionToken    string
	Region          string
}

// NewCredentials creates a new credentials instance
func NewCredentials() *Credentials {
	return &Credentials{}
}

// LoadFromPasswdFile loads credentials from a passwd file. Lines are either
// ACCESS_KEY:SECRET_KEY or BUCKET:ACCESS_KEY:SECRET_KEY; a bucket-specific
// line wins over the default one. Blank lines and # comments are skipped.
func (c *Credentials) LoadFromPasswdFile(path, bucket string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to read passwd file: %w", err)
	}
	defer f.Close()

	var defKey, defSecret string
	found := false
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		parts := strings.Split(line, ":")
		switch len(parts) {
		case 2:
			if !found {
				defKey, defSecret = strings.TrimSpace(parts[0]), strings.TrimSpace(parts[1])
			}
		case 3:
			if bucket != "" && strings.TrimSpace(parts[0]) == bucket {
				defKey, defSecret = strings.TrimSpace(parts[1]), strings.TrimSpace(parts[2])
				found = true
			}
		default:
			return fmt.Errorf("invalid passwd file format, expected [BUCKET:]ACCESS_KEY:SECRET_KEY")
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("failed to read passwd file: %w", err)
	}
	if defKey == "" || defSecret == "" {
		return fmt.Errorf("no credentials in passwd file %s", path)
	}

	c.AccessKeyID = defKey
	c.SecretAccessKey = defSecret
	return nil
}

// LoadFromEnvironment loads credentials from environment variables
func (c *Credentials) LoadFromEnvironment() error {
	accessKey := os.Getenv("AWS_ACCESS_KEY_ID")
	secretKey := os.Getenv("AWS_SECRET_ACCESS_KEY")
	sessionToken := os.Getenv("AWS_SESSION_TOKEN")

	if accessKey == "" || secretKey == "" {
		return fmt.Errorf("AWS_ACCESS_KEY_ID and AWS_SECRET_ACCESS_KEY must be set")
	}

	c.AccessKeyID = accessKey
	c.SecretAccessKey = secretKey
	c.SessionToken = sessionToken
	if region := os.Getenv("AWS_REGION"); region != "" {
		c.Region = region
	}

	return nil
}

// IsValid checks if credentials are valid (both access key and secret are set)
func (c *Credentials) IsValid() bool {
	return c.AccessKeyID != "" && c.SecretAccessKey != ""
}
