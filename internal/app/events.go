package app

import (
	"context"
	"log"
)

// publishEvent publishes a domain event on the monetization exchange.
// Publishing is best-effort; a broker failure never fails the user
// operation that produced the event.
func (s *Service) publishEvent(ctx context.Context, routingKey string, body interface{}) {
	if s.events == nil {
		return
	}
	if err := s.events.Publish(ctx, "monetization.events", routingKey, body); err != nil {
		log.Printf("level=warn component=events msg=\"event publish failed\" routing_key=%s err=%v", routingKey, err)
	}
}
