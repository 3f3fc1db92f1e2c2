package pipeline

import (
	"github.com/aristath/commodities/internal/domain"
)

// Run mode names, as used in envelopes, archives and file names
const (
	ModeDiscovery = "discovery"
	ModeReview    = "review"
)

// Mode selects what a run does. The only implementations are Discovery and Review.
type Mode interface {
	Name() string
	isMode()
}

// Discovery screens the whole universe for movers and suggests option strategies
type Discovery struct{}

func (Discovery) Name() string { return ModeDiscovery }
func (Discovery) isMode()      {}

// Review scores a list of held option positions
type Review struct {
	Positions []domain.Position
}

func (Review) Name() string { return ModeReview }
func (Review) isMode()      {}
