// Command calendar_consent obtains the Google refresh token used for meeting
// provisioning. Run it once without -code to print the consent URL, then again
// with the authorization code returned to the redirect URI.
package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/noah-isme/tutorconnect-api/pkg/calendar"
	"github.com/noah-isme/tutorconnect-api/pkg/config"
)

func main() {
	var (
		code    string
		state   string
		timeout time.Duration
	)
	flag.StringVar(&code, "code", "", "Authorization code returned to the redirect URI")
	flag.StringVar(&state, "state", "", "Opaque state to embed in the consent URL (random when empty)")
	flag.DurationVar(&timeout, "timeout", 30*time.Second, "Token exchange timeout")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	if cfg.Google.ClientID == "" || cfg.Google.ClientSecret == "" {
		log.Fatal("GOOGLE_CLIENT_ID and GOOGLE_CLIENT_SECRET must be set")
	}

	if code == "" {
		if state == "" {
			state = randomState()
		}
		fmt.Println("Open this URL, grant calendar access, then rerun with -code:")
		fmt.Println(calendar.ConsentURL(cfg.Google, state))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	tok, err := calendar.ExchangeCode(ctx, cfg.Google, code)
	if err != nil {
		log.Fatalf("token exchange failed: %v", err)
	}
	fmt.Printf("GOOGLE_REFRESH_TOKEN=%s\n", tok.RefreshToken)
}

func randomState() string {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "tutorconnect"
	}
	return hex.EncodeToString(buf)
}
