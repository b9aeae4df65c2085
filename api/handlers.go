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
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/blinklabs-io/polity/ledger"
)

const (
	maxRequestBodySize  = 1 << 20
	defaultHistoryLimit = 100
	maxHistoryLimit     = 1000
)

// writeJSON writes a JSON response with the given status
// code.
func writeJSON(
	w http.ResponseWriter,
	status int,
	v any,
) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	//nolint:errcheck,errchkjson
	json.NewEncoder(w).Encode(v)
}

func writeError(
	w http.ResponseWriter,
	status int,
	errStr string,
	message string,
) {
	writeJSON(w, status, ErrorResponse{
		StatusCode: status,
		Error:      errStr,
		Message:    message,
	})
}

func writeBadRequest(w http.ResponseWriter, err error) {
	writeError(
		w,
		http.StatusBadRequest,
		http.StatusText(http.StatusBadRequest),
		err.Error(),
	)
}

func decodeBody(w http.ResponseWriter, r *http.Request, dest any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBodySize))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dest); err != nil {
		if errors.Is(err, io.EOF) {
			return errors.New("request body is empty")
		}
		return fmt.Errorf("invalid request body: %w", err)
	}
	return nil
}

// operation wraps a state-changing handler: it decodes the request body into
// T and writes the result, or OkResponse when there is none
func operation[T any](
	s *Server,
	fn func(*http.Request, T) (any, error),
) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req T
		if err := decodeBody(w, r, &req); err != nil {
			writeBadRequest(w, err)
			return
		}
		resp, err := fn(r, req)
		if err != nil {
			s.writeNodeError(w, "operation failed", err)
			return
		}
		if resp == nil {
			resp = OkResponse{Ok: true}
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

// handleHealth handles GET /health and returns node health
// status.
func (s *Server) handleHealth(
	w http.ResponseWriter,
	_ *http.Request,
) {
	_, err := s.node.Status()
	if err != nil {
		writeJSON(w, http.StatusServiceUnavailable, HealthResponse{})
		return
	}
	writeJSON(w, http.StatusOK, HealthResponse{
		IsHealthy: true,
	})
}

func (s *Server) handleStatus(
	w http.ResponseWriter,
	_ *http.Request,
) {
	info, err := s.node.Status()
	if err != nil {
		s.writeNodeError(w, "failed to retrieve status", err)
		return
	}
	st := info.Ledger
	resp := StatusResponse{
		Phase:             st.Phase.String(),
		Initialized:       st.Initialized,
		MonarchyEnd:       st.MonarchyEnd.Unix(),
		QuotaRemaining:    st.QuotaRemaining,
		QuotaResetAt:      st.QuotaResetAt.Unix(),
		Roles:             make(map[string]string, len(st.Roles)),
		Weights:           make(map[string]uint64, len(st.Weights)),
		Received:          make(map[string]uint64, len(st.Received)),
		WeightSum:         st.WeightSum,
		FeeRecipient:      st.FeeRecipient.String(),
		Automation:        st.Automation.String(),
		TotalAccrued:      st.TotalAccrued,
		PoolBalance:       st.PoolBalance,
		RestrictedHolders: st.RestrictedHolders,
		TotalSupply:       info.TotalSupply,
		VaultTotal:        info.VaultTotal,
		Sequence:          info.Sequence,
	}
	for cat, addr := range st.Roles {
		resp.Roles[cat.String()] = addr.String()
	}
	for cat, weight := range st.Weights {
		resp.Weights[cat.String()] = weight
	}
	for cat, amount := range st.Received {
		resp.Received[cat.String()] = amount
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleAccount(
	w http.ResponseWriter,
	r *http.Request,
) {
	addr, err := ledger.ParseAddress(r.PathValue("address"))
	if err != nil {
		writeBadRequest(w, err)
		return
	}
	info, err := s.node.Account(addr)
	if err != nil {
		s.writeNodeError(w, "failed to retrieve account", err)
		return
	}
	writeJSON(w, http.StatusOK, AccountResponse{
		Address:   info.Address.String(),
		Status:    info.Holder.Status.String(),
		Choice:    info.Holder.Choice,
		Balance:   info.Balance,
		Value:     info.Value,
		FeeExempt: info.FeeExempt,
	})
}

func (s *Server) handleAllowance(
	w http.ResponseWriter,
	r *http.Request,
) {
	owner, err := ledger.ParseAddress(r.PathValue("owner"))
	if err != nil {
		writeBadRequest(w, err)
		return
	}
	spender, err := ledger.ParseAddress(r.PathValue("spender"))
	if err != nil {
		writeBadRequest(w, err)
		return
	}
	amount, err := s.node.Allowance(owner, spender)
	if err != nil {
		s.writeNodeError(w, "failed to retrieve allowance", err)
		return
	}
	writeJSON(w, http.StatusOK, AllowanceResponse{
		Owner:   owner.String(),
		Spender: spender.String(),
		Amount:  amount,
	})
}

func (s *Server) handleTally(
	w http.ResponseWriter,
	_ *http.Request,
) {
	entries, err := s.node.TallyEntries()
	if err != nil {
		s.writeNodeError(w, "failed to retrieve tally", err)
		return
	}
	resp := make([]TallyEntryResponse, 0, len(entries))
	for _, entry := range entries {
		resp = append(resp, TallyEntryResponse{
			Candidate: entry.Candidate.String(),
			Category:  entry.Category.String(),
			Index:     entry.Index,
			Weight:    entry.Weight,
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleExemptions(
	w http.ResponseWriter,
	_ *http.Request,
) {
	addrs, err := s.node.FeeExemptions()
	if err != nil {
		s.writeNodeError(w, "failed to retrieve fee exemptions", err)
		return
	}
	resp := make([]string, 0, len(addrs))
	for _, addr := range addrs {
		resp = append(resp, addr.String())
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleEntitlement(
	w http.ResponseWriter,
	r *http.Request,
) {
	cat, err := ledger.ParseFeeCategory(r.PathValue("category"))
	if err != nil {
		writeBadRequest(w, err)
		return
	}
	amount, err := s.node.Entitlement(cat)
	if err != nil {
		s.writeNodeError(w, "failed to compute entitlement", err)
		return
	}
	writeJSON(w, http.StatusOK, EntitlementResponse{
		Category: cat.String(),
		Amount:   amount,
	})
}

// handleHistory handles GET /api/v1/history?from=N&limit=M
func (s *Server) handleHistory(
	w http.ResponseWriter,
	r *http.Request,
) {
	query := r.URL.Query()
	var from uint64
	if v := query.Get("from"); v != "" {
		tmp, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			writeBadRequest(w, fmt.Errorf("invalid from: %w", err))
			return
		}
		from = tmp
	}
	limit := defaultHistoryLimit
	if v := query.Get("limit"); v != "" {
		tmp, err := strconv.Atoi(v)
		if err != nil || tmp <= 0 {
			writeBadRequest(w, fmt.Errorf("invalid limit: %q", v))
			return
		}
		limit = min(tmp, maxHistoryLimit)
	}
	records, err := s.node.History(from, limit)
	if err != nil {
		s.writeNodeError(w, "failed to retrieve history", err)
		return
	}
	writeJSON(w, http.StatusOK, records)
}

func (s *Server) opChangeChoice(r *http.Request, req ChoiceRequest) (any, error) {
	return nil, s.node.ChangeChoice(r.Context(), req.Caller, req.Choice)
}

func (s *Server) opTransfer(r *http.Request, req TransferRequest) (any, error) {
	fee, err := s.node.Transfer(r.Context(), req.Caller, req.To, req.Amount)
	if err != nil {
		return nil, err
	}
	return FeeResponse{Fee: fee}, nil
}

func (s *Server) opTransferFrom(r *http.Request, req TransferFromRequest) (any, error) {
	fee, err := s.node.TransferFrom(
		r.Context(),
		req.Caller,
		req.From,
		req.To,
		req.Amount,
	)
	if err != nil {
		return nil, err
	}
	return FeeResponse{Fee: fee}, nil
}

func (s *Server) opApprove(r *http.Request, req ApproveRequest) (any, error) {
	return nil, s.node.Approve(r.Context(), req.Caller, req.Spender, req.Amount)
}

func (s *Server) opRestrict(r *http.Request, req RestrictRequest) (any, error) {
	return nil, s.node.Restrict(r.Context(), req.Caller, req.Target)
}

func (s *Server) opClaimRole(r *http.Request, req CallerRequest) (any, error) {
	cat, err := ledger.ParseCategory(r.PathValue("category"))
	if err != nil {
		return nil, err
	}
	return nil, s.node.ClaimRole(r.Context(), req.Caller, cat)
}

func (s *Server) opAbdicate(r *http.Request, req CallerRequest) (any, error) {
	return nil, s.node.Abdicate(r.Context(), req.Caller)
}

func (s *Server) opSetWeight(r *http.Request, req WeightRequest) (any, error) {
	cat, err := ledger.ParseFeeCategory(r.PathValue("category"))
	if err != nil {
		return nil, err
	}
	return nil, s.node.SetWeight(r.Context(), req.Caller, cat, req.Weight)
}

func (s *Server) opSetFeeRecipient(r *http.Request, req RecipientRequest) (any, error) {
	return nil, s.node.SetFeeRecipient(r.Context(), req.Caller, req.Recipient)
}

func (s *Server) opSetFeeExempt(r *http.Request, req ExemptionRequest) (any, error) {
	return nil, s.node.SetFeeExempt(r.Context(), req.Caller, req.Address, req.Exempt)
}

func (s *Server) opSetAutomation(r *http.Request, req AutomationRequest) (any, error) {
	return nil, s.node.SetAutomation(r.Context(), req.Caller, req.Automation)
}

func (s *Server) opDeposit(r *http.Request, req DepositRequest) (any, error) {
	return nil, s.node.DepositValue(r.Context(), req.Caller, req.Amount)
}

func (s *Server) opWithdraw(r *http.Request, req CallerRequest) (any, error) {
	cat, err := ledger.ParseFeeCategory(r.PathValue("category"))
	if err != nil {
		return nil, err
	}
	amount, err := s.node.Withdraw(r.Context(), req.Caller, cat)
	if err != nil {
		return nil, err
	}
	return AmountResponse{Amount: amount}, nil
}

func (s *Server) opWithdrawAll(r *http.Request, req CallerRequest) (any, error) {
	payouts, err := s.node.WithdrawAll(r.Context(), req.Caller)
	if err != nil {
		return nil, err
	}
	resp := make([]PayoutResponse, 0, len(payouts))
	for _, p := range payouts {
		resp = append(resp, PayoutResponse{
			Category:    p.Category.String(),
			Beneficiary: p.Beneficiary.String(),
			Amount:      p.Amount,
		})
	}
	return resp, nil
}

func (s *Server) opSweep(r *http.Request, req CallerRequest) (any, error) {
	return nil, s.node.Sweep(r.Context(), req.Caller)
}

func (s *Server) opSettle(r *http.Request, req CallerRequest) (any, error) {
	res, err := s.node.Settle(r.Context(), req.Caller)
	if err != nil {
		return nil, err
	}
	return res, nil
}
