package api

import (
	"errors"
	"strings"

	"github.com/okian/lineup/internal/domain/model"
)

// scheduleRequest mirrors the OpenAPI schema for POST /schedules.
type scheduleRequest struct {
	RequestID          string      `json:"request_id"`
	Strategy           string      `json:"strategy"`
	Acts               []model.Act `json:"acts"`
	StartAct           string      `json:"start_act"`
	EndAct             string      `json:"end_act"`
	ConfirmLarge       bool        `json:"confirm_large"`
	MaxIterations      int         `json:"max_iterations"`
	InitialTemperature float64     `json:"initial_temperature"`
	CoolingRate        float64     `json:"cooling_rate"`
	Seed               *int64      `json:"seed"`
}

func (r *scheduleRequest) validate() error {
	switch strings.ToLower(strings.TrimSpace(r.Strategy)) {
	case "", string(model.StrategyExhaustive), string(model.StrategyAnneal):
	default:
		return errors.New("strategy must be exhaustive or anneal")
	}
	for _, a := range r.Acts {
		if strings.TrimSpace(a.Name) == "" {
			return errors.New("every act needs a name")
		}
	}
	return nil
}

func (r *scheduleRequest) toJobRequest() model.JobRequest {
	return model.JobRequest{
		RequestID:    strings.TrimSpace(r.RequestID),
		Strategy:     model.Strategy(strings.ToLower(strings.TrimSpace(r.Strategy))),
		Acts:         r.Acts,
		Pins:         model.Pins{Start: r.StartAct, End: r.EndAct},
		ConfirmLarge: r.ConfirmLarge,
		Anneal: model.AnnealSettings{
			MaxIterations:      r.MaxIterations,
			InitialTemperature: r.InitialTemperature,
			CoolingRate:        r.CoolingRate,
			Seed:               r.Seed,
		},
	}
}

// evaluateRequest mirrors the OpenAPI schema for POST /evaluate.
type evaluateRequest struct {
	Acts     []model.Act    `json:"acts"`
	Schedule model.Schedule `json:"schedule"`
}

func (r *evaluateRequest) validate() error {
	if len(r.Acts) == 0 {
		return errors.New("missing acts")
	}
	return nil
}
