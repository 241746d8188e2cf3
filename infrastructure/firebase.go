package infrastructure

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/auth"
	"google.golang.org/api/option"
)

// AuthClaims is the subset of the decoded identity token the rest of the
// service cares about.
type AuthClaims struct {
	Email string
}

// FirebaseVerifier validates bearer tokens against the Firebase Admin SDK.
// Process-lifetime singleton, same as the store client.
type FirebaseVerifier struct {
	client *auth.Client
}

// NewFirebaseVerifier builds the Admin app from the service-account triple
// in the environment (FIREBASE_PROJECT_ID, FIREBASE_CLIENT_EMAIL,
// FIREBASE_PRIVATE_KEY).
func NewFirebaseVerifier(ctx context.Context) (*FirebaseVerifier, error) {
	projectID := os.Getenv("FIREBASE_PROJECT_ID")

	creds, err := serviceAccountJSON(
		projectID,
		os.Getenv("FIREBASE_CLIENT_EMAIL"),
		os.Getenv("FIREBASE_PRIVATE_KEY"),
	)
	if err != nil {
		return nil, err
	}

	app, err := firebase.NewApp(ctx, &firebase.Config{ProjectID: projectID}, option.WithCredentialsJSON(creds))
	if err != nil {
		return nil, fmt.Errorf("init firebase app: %w", err)
	}

	client, err := app.Auth(ctx)
	if err != nil {
		return nil, fmt.Errorf("init firebase auth: %w", err)
	}
	return &FirebaseVerifier{client: client}, nil
}

// serviceAccountJSON assembles a credentials document from the three env
// values. Deployment environments store the key with literal "\n"
// sequences, which must be expanded back to newlines.
func serviceAccountJSON(projectID, clientEmail, privateKey string) ([]byte, error) {
	if projectID == "" || clientEmail == "" || privateKey == "" {
		return nil, errors.New("FIREBASE_PROJECT_ID, FIREBASE_CLIENT_EMAIL and FIREBASE_PRIVATE_KEY must be set")
	}

	return json.Marshal(map[string]string{
		"type":         "service_account",
		"project_id":   projectID,
		"client_email": clientEmail,
		"private_key":  strings.ReplaceAll(privateKey, `\n`, "\n"),
		"token_uri":    "https://oauth2.googleapis.com/token",
	})
}

// Verify decodes and validates a bearer token, returning its email claim.
func (v *FirebaseVerifier) Verify(ctx context.Context, idToken string) (*AuthClaims, error) {
	token, err := v.client.VerifyIDToken(ctx, idToken)
	if err != nil {
		return nil, fmt.Errorf("verify id token: %w", err)
	}

	email, _ := token.Claims["email"].(string)
	if email == "" {
		return nil, errors.New("token carries no email claim")
	}
	return &AuthClaims{Email: email}, nil
}
