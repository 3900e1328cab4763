// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package requestutil provides utilities for extracting data from HTTP requests.

It abstracts away body decoding and identity lookup, ensuring consistent error
handling across handlers.
*/
package requestutil

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/taibuivan/recipehub/internal/platform/apperr"
	"github.com/taibuivan/recipehub/internal/platform/ctxutil"
	"github.com/taibuivan/recipehub/internal/platform/sec"
	"github.com/taibuivan/recipehub/internal/platform/validate"
)

// maxBodyBytes caps JSON request bodies. Identity payloads are tiny.
const maxBodyBytes = 64 << 10

/*
DecodeJSON reads the request body and decodes it into the target structure.

Parameters:
  - writer: http.ResponseWriter (used to enforce the body size cap)
  - request: *http.Request
  - target: any (Pointer to the destination struct)

Returns:
  - error: validate.ErrInvalidJSON if decoding fails, otherwise nil
*/
func DecodeJSON(writer http.ResponseWriter, request *http.Request, target any) error {
	body := http.MaxBytesReader(writer, request.Body, maxBodyBytes)
	if err := json.NewDecoder(body).Decode(target); err != nil && !errors.Is(err, io.EOF) {
		return validate.ErrInvalidJSON
	}
	return nil
}

/*
RequiredIdentity ensures the request is authenticated and returns its identity.

Returns:
  - *sec.Identity: The authenticated principal
  - error: apperr.Unauthorized if the request is not authenticated
*/
func RequiredIdentity(request *http.Request) (*sec.Identity, error) {
	identity, ok := ctxutil.GetIdentity(request.Context())
	if !ok {
		return nil, apperr.Unauthorized("Authentication required")
	}
	return identity, nil
}
