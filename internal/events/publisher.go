package events

import (
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"ghost-backend/internal/clients"
	"ghost-backend/internal/metrics"
)

// Broadcaster receives every published event for local fan-out
// (websocket subscribers). Implemented by the websocket hub.
type Broadcaster interface {
	Broadcast(eventType string, payload any)
}

// Publisher fans protocol events out to NATS and to the local
// broadcaster. Both sinks are optional: a nil NATS client or
// broadcaster is skipped, and publish failures are logged, not
// propagated — eventing is advisory, state changes have already
// committed.
type Publisher struct {
	nats *clients.NATSClient
	hub  Broadcaster
}

// NewPublisher creates a publisher. Either sink may be nil.
func NewPublisher(nats *clients.NATSClient, hub Broadcaster) *Publisher {
	return &Publisher{nats: nats, hub: hub}
}

// subject builds "ghost.<asset>.<component>.<eventType>". The asset
// label is the hex asset id without the 0x prefix, or "all" for
// asset-independent events.
func subject(assetID, component, eventType string) string {
	label := strings.TrimPrefix(assetID, "0x")
	if label == "" {
		label = "all"
	}
	return fmt.Sprintf("ghost.%s.%s.%s", label, component, eventType)
}

func (p *Publisher) publish(assetID, component, eventType string, payload any) {
	if p == nil {
		return
	}
	if p.hub != nil {
		p.hub.Broadcast(eventType, payload)
	}
	if p.nats == nil {
		return
	}
	subj := subject(assetID, component, eventType)
	if err := p.nats.Publish(subj, payload); err != nil {
		metrics.NATSPublishFailures.WithLabelValues(eventType).Inc()
		logrus.WithFields(logrus.Fields{
			"subject": subj,
			"error":   err.Error(),
		}).Warn("failed to publish protocol event")
		return
	}
	metrics.NATSEventsPublished.WithLabelValues(eventType).Inc()
}

// CommitmentInserted publishes a ledger insert notification.
func (p *Publisher) CommitmentInserted(ev CommitmentInsertedEvent) {
	p.publish(ev.AssetID, "Ledger", TypeCommitmentInserted, ev)
}

// RootUpdated publishes an accepted root submission.
func (p *Publisher) RootUpdated(ev RootUpdatedEvent) {
	p.publish("", "Ledger", TypeRootUpdated, ev)
}

// NullifierSpent publishes a nullifier mark.
func (p *Publisher) NullifierSpent(ev NullifierSpentEvent) {
	p.publish("", "Registry", TypeNullifierSpent, ev)
}

// Ghosted publishes a ghost operation.
func (p *Publisher) Ghosted(ev GhostedEvent) {
	p.publish(ev.AssetID, "Vault", TypeGhosted, ev)
}

// Redeemed publishes a redemption.
func (p *Publisher) Redeemed(ev RedeemedEvent) {
	p.publish(ev.AssetID, "Vault", TypeRedeemed, ev)
}
