package identity

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog"
)

const (
	targetPrefix    = "AWSCognitoIdentityProviderService."
	amzJSONMimeType = "application/x-amz-json-1.1"
)

// CognitoClient speaks the Cognito user-pool JSON protocol for the public
// client operations (SignUp, ConfirmSignUp), which need no request signing.
type CognitoClient struct {
	client       *resty.Client
	clientID     string
	clientSecret string
	log          zerolog.Logger
}

// NewCognitoClient targets endpoint, e.g. https://cognito-idp.us-east-1.amazonaws.com.
func NewCognitoClient(endpoint, clientID, clientSecret string, timeout time.Duration, log zerolog.Logger) *CognitoClient {
	c := resty.New().
		SetBaseURL(strings.TrimRight(endpoint, "/")).
		SetHeader("Content-Type", amzJSONMimeType).
		SetTimeout(timeout)
	return &CognitoClient{client: c, clientID: clientID, clientSecret: clientSecret, log: log}
}

type attributeType struct {
	Name  string `json:"Name"`
	Value string `json:"Value"`
}

type signUpInput struct {
	ClientID       string          `json:"ClientId"`
	Username       string          `json:"Username"`
	Password       string          `json:"Password"`
	SecretHash     string          `json:"SecretHash,omitempty"`
	UserAttributes []attributeType `json:"UserAttributes,omitempty"`
}

type confirmSignUpInput struct {
	ClientID         string `json:"ClientId"`
	Username         string `json:"Username"`
	ConfirmationCode string `json:"ConfirmationCode"`
	SecretHash       string `json:"SecretHash,omitempty"`
}

type errorBody struct {
	Type    string `json:"__type"`
	Message string `json:"message"`
}

func (c *CognitoClient) SignUp(ctx context.Context, req SignUpRequest) error {
	in := signUpInput{
		ClientID:   c.clientID,
		Username:   req.Email,
		Password:   req.Password,
		SecretHash: c.secretHash(req.Email),
	}
	in.UserAttributes = append(in.UserAttributes, attributeType{Name: "email", Value: req.Email})
	for k, v := range req.Attributes {
		in.UserAttributes = append(in.UserAttributes, attributeType{Name: k, Value: v})
	}
	return c.call(ctx, "SignUp", &in)
}

func (c *CognitoClient) ConfirmSignUp(ctx context.Context, email, code string) error {
	in := confirmSignUpInput{
		ClientID:         c.clientID,
		Username:         email,
		ConfirmationCode: code,
		SecretHash:       c.secretHash(email),
	}
	return c.call(ctx, "ConfirmSignUp", &in)
}

// call encodes body itself because resty only auto-marshals recognised JSON
// media types and x-amz-json-1.1 is not one of them.
func (c *CognitoClient) call(ctx context.Context, op string, body any) error {
	raw, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("cognito %s encode: %w", op, err)
	}
	resp, err := c.client.R().
		SetContext(ctx).
		SetHeader("X-Amz-Target", targetPrefix+op).
		SetBody(raw).
		Post("/")
	if err != nil {
		return fmt.Errorf("cognito %s request: %w", op, err)
	}
	if resp.IsSuccess() {
		c.log.Debug().Str("op", op).Int("status", resp.StatusCode()).Msg("identity provider call ok")
		return nil
	}
	return parseError(resp.StatusCode(), resp.Body())
}

// parseError decodes {"__type": "...", "message": "..."}. The type may carry a
// namespace prefix ("com.amazonaws...#CodeMismatchException").
func parseError(status int, raw []byte) error {
	var eb errorBody
	if err := json.Unmarshal(raw, &eb); err != nil || eb.Type == "" {
		return &ProviderError{Code: "UnknownError", Message: strings.TrimSpace(string(raw)), Status: status}
	}
	code := eb.Type
	if i := strings.LastIndex(code, "#"); i >= 0 {
		code = code[i+1:]
	}
	return &ProviderError{Code: code, Message: eb.Message, Status: status}
}

// secretHash is Base64(HMAC_SHA256(clientSecret, username + clientId)),
// required only for app clients that have a secret.
func (c *CognitoClient) secretHash(username string) string {
	if c.clientSecret == "" {
		return ""
	}
	mac := hmac.New(sha256.New, []byte(c.clientSecret))
	mac.Write([]byte(username + c.clientID))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}
