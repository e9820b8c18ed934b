package events

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"daoTracker/internal/logreader"
	"daoTracker/internal/model"
)

// Decoder turns raw logs into events. It holds no mutable state and is safe
// for concurrent use.
type Decoder struct {
	logger *zap.Logger
}

func NewDecoder(logger *zap.Logger) *Decoder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Decoder{logger: logger}
}

// CanDecode reports whether topic0 is in the signature table.
func (d *Decoder) CanDecode(topic0 common.Hash) bool {
	_, ok := signatures[topic0]
	return ok
}

// NeedsAgent reports whether logs with this topic0 must be decoded with an agent hint.
func (d *Decoder) NeedsAgent(topic0 common.Hash) bool {
	s, ok := signatures[topic0]
	return ok && s.agent
}

// Decode never fails: unmatched signatures and malformed payloads both yield
// Unknown, the latter with a warning. It panics if a vote event arrives
// without an agent hint.
func (d *Decoder) Decode(agent *model.VotingAgent, log logreader.RawLog) Event {
	event, err := d.TryDecode(agent, log)
	if err != nil {
		d.logger.Warn("malformed log",
			zap.String("topic0", log.Topic0().Hex()),
			zap.String("address", log.Address.Hex()),
			zap.Error(err),
		)
	}
	return event
}

// TryDecode is Decode that also returns the reason a recognised log decoded as Unknown.
func (d *Decoder) TryDecode(agent *model.VotingAgent, log logreader.RawLog) (Event, error) {
	topic0 := log.Topic0()
	s, ok := signatures[topic0]
	if !ok {
		return Unknown{Topic0: topic0}, nil
	}
	if s.agent && agent == nil {
		panic(fmt.Sprintf("events: %s log from %s decoded without a voting agent", s.kind, log.Address.Hex()))
	}

	r, err := logreader.New(log, s.topics, s.words)
	if err != nil {
		return Unknown{Topic0: topic0}, fmt.Errorf("%s: %w", s.kind, err)
	}
	if s.build == nil {
		return Ignored{Topic0: topic0}, nil
	}

	var hint model.VotingAgent
	if agent != nil {
		hint = *agent
	}
	f := &fields{r: r}
	event := s.build(f, hint)
	if f.err != nil {
		return Unknown{Topic0: topic0}, fmt.Errorf("%s: %w", s.kind, f.err)
	}
	return event, nil
}
