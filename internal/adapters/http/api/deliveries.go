package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/okian/wicket/internal/domain/innings"
	"github.com/okian/wicket/internal/domain/model"
)

const maxDeliveryBody = 64 << 10

// deliveryRequest mirrors the OpenAPI schema for POST .../deliveries.
// Omitted striker, non_striker and commentary are empty; omitted extras and
// wicket mean none.
type deliveryRequest struct {
	DeliveryID string `json:"delivery_id"`
	OverNo     int    `json:"over_no"`
	BallNo     int    `json:"ball_no"`
	Striker    string `json:"striker"`
	NonStriker string `json:"non_striker"`
	Bowler     string `json:"bowler"`
	Runs       int    `json:"runs"`
	Extras     string `json:"extras"`
	Wicket     string `json:"wicket"`
	Commentary string `json:"commentary"`
}

func (req deliveryRequest) delivery() model.Delivery {
	return model.Delivery{
		DeliveryID: req.DeliveryID,
		OverNo:     req.OverNo,
		BallNo:     req.BallNo,
		Striker:    req.Striker,
		NonStriker: req.NonStriker,
		Bowler:     req.Bowler,
		Runs:       req.Runs,
		Extras:     model.Extra(req.Extras),
		Wicket:     req.Wicket,
		Commentary: req.Commentary,
	}
}

type appendResponse struct {
	innings.Result
	DeliveryID string `json:"delivery_id,omitempty"`
	Position   string `json:"position,omitempty"`
}

// handleAppend handles POST /matches/{match}/innings/{innings}/deliveries.
func (s *Server) handleAppend(w http.ResponseWriter, r *http.Request) {
	const op = "api.append_delivery"
	key, err := inningsKey(r)
	if err != nil {
		s.writeFailure(r.Context(), w, op, err)
		return
	}

	var req deliveryRequest
	dec := json.NewDecoder(io.LimitReader(r.Body, maxDeliveryBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		if errors.Is(err, io.EOF) {
			err = errors.New("empty body")
		}
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}

	stored, res := s.deps.AppendDelivery(r.Context(), key, req.delivery())
	resp := appendResponse{Result: res}
	if res.OK() {
		resp.DeliveryID = stored.DeliveryID
		if !res.Duplicate {
			resp.Position = stored.Position()
		}
	}
	writeJSON(w, resultStatus(res), resp)
}

// handleListDeliveries handles GET /matches/{match}/innings/{innings}/deliveries.
func (s *Server) handleListDeliveries(w http.ResponseWriter, r *http.Request) {
	const op = "api.list_deliveries"
	key, err := inningsKey(r)
	if err != nil {
		s.writeFailure(r.Context(), w, op, err)
		return
	}
	list, err := s.deps.ListDeliveries(r.Context(), key)
	if err != nil {
		s.writeFailure(r.Context(), w, op, err)
		return
	}
	if list == nil {
		list = []model.Delivery{}
	}
	writeJSON(w, http.StatusOK, list)
}
