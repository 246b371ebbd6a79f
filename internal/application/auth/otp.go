package auth

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strconv"
	"time"
)

// otpTTL is how long an issued code stays valid.
const otpTTL = 300000 * time.Millisecond

const otpSubject = "Email Verification OTP"

const otpTemplate = `
<div style="font-family: Arial, sans-serif; text-align: center;">
  <h2>Email Verification</h2>
  <p>Your OTP for email verification is:</p>
  <h1 style="color: #4CAF50;">%s</h1>
  <p>This OTP expires in 5 minutes.</p>
</div>
`

// generateOTP returns a uniformly random code in [1000, 9999].
func generateOTP() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(9000))
	if err != nil {
		return "", fmt.Errorf("generate otp: %w", err)
	}
	return strconv.FormatInt(n.Int64()+1000, 10), nil
}

func otpEmailBody(code string) string {
	return fmt.Sprintf(otpTemplate, code)
}
