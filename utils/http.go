package utils

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
)

// maxBodyBytes bounds request bodies read by DecodeJSON
const maxBodyBytes = 1 << 20

// ErrMalformedBody is returned by DecodeJSON when the body is not a JSON object
var ErrMalformedBody = errors.New("malformed request body")

// TokenResponse carries an issued bearer token
type TokenResponse struct {
	Token string `json:"token"`
}

// WriteJSON writes a JSON response with the given status code
func WriteJSON(w http.ResponseWriter, status int, data interface{}) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if data == nil {
		return nil
	}

	return json.NewEncoder(w).Encode(data)
}

// WriteEmpty writes a status code with no body
func WriteEmpty(w http.ResponseWriter, status int) {
	w.WriteHeader(status)
}

// WriteOK writes a 200 OK response with data as the body
func WriteOK(w http.ResponseWriter, data interface{}) error {
	return WriteJSON(w, http.StatusOK, data)
}

// WriteCreated writes a 201 Created response with data as the body
func WriteCreated(w http.ResponseWriter, data interface{}) error {
	return WriteJSON(w, http.StatusCreated, data)
}

// WriteToken writes a token response with the given status
func WriteToken(w http.ResponseWriter, status int, token string) error {
	return WriteJSON(w, status, TokenResponse{Token: token})
}

// DecodeJSON decodes the request body into dst. An empty body decodes as {}.
func DecodeJSON(r *http.Request, dst interface{}) error {
	if r.Body == nil {
		return nil
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes+1))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedBody, err)
	}
	if len(body) > maxBodyBytes {
		return fmt.Errorf("%w: body too large", ErrMalformedBody)
	}
	if len(bytes.TrimSpace(body)) == 0 {
		return nil
	}

	if err := json.Unmarshal(body, dst); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedBody, err)
	}
	return nil
}
