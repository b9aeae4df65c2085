// Copyright 2025 Blink Labs Software
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/blinklabs-io/polity/ledger"
)

// errorStatus maps a node error to an HTTP status code
func errorStatus(err error) int {
	switch {
	case errors.Is(err, ledger.ErrInvalidArgument):
		return http.StatusBadRequest
	case errors.Is(err, ledger.ErrUnauthorized):
		return http.StatusForbidden
	case errors.Is(err, ledger.ErrInvalidState),
		errors.Is(err, ledger.ErrStateConflict):
		return http.StatusConflict
	case errors.Is(err, ledger.ErrLimitExceeded),
		errors.Is(err, ledger.ErrInsufficientFunds):
		return http.StatusUnprocessableEntity
	case errors.Is(err, context.Canceled),
		errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) writeNodeError(
	w http.ResponseWriter,
	msg string,
	err error,
) {
	status := errorStatus(err)
	if status == http.StatusInternalServerError {
		s.logger.Error(
			msg,
			"error", err,
		)
		// Storage and arithmetic failures are not echoed to clients
		writeError(w, status, http.StatusText(status), msg)
		return
	}
	writeError(w, status, http.StatusText(status), err.Error())
}
