// Copyright 2024 Google, LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package cloud provides components for interacting with Google Cloud services.
// This file defines a generic, reusable Pub/Sub message listener. The listener
// abstracts the mechanics of receiving messages from a subscription and
// delegates the actual processing to a "Command" from the chain-of-
// responsibility package.
//
// Logic Flow:
//  1. An instance of PubSubListener is created with a client and a subscription ID.
//  2. A Command (a piece of business logic) is attached to this listener.
//  3. The Listen method starts an asynchronous background goroutine.
//  4. The goroutine waits for new messages from the specified subscription.
//  5. Each message is passed to the attached Command for processing.
//  6. The message is acknowledged only if the Command completes successfully,
//     ensuring reliable, at-least-once message processing.
//  7. The process is instrumented with OpenTelemetry for tracing.
package cloud

import (
	"context"
	"log"

	"cloud.google.com/go/pubsub"
	"github.com/spoonfeed/recipe-pipeline/internal/core/cor"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// PubSubListener encapsulates the components needed to listen to a specific
// Pub/Sub subscription. It connects a subscription to a processing command.
// Listeners have a life-cycle independent of individual API requests, so
// they live with the other cloud components.
type PubSubListener struct {
	client       *pubsub.Client       // The client for interacting with the Pub/Sub service.
	subscription *pubsub.Subscription // The subscription this listener pulls messages from.
	command      cor.Command          // The command to execute for each message received.
}

// NewPubSubListener creates a listener for the given subscription ID. The
// command may be nil at construction and attached later with SetCommand,
// which is how the server wires listeners to workflows after both exist.
func NewPubSubListener(
	pubsubClient *pubsub.Client,
	subscriptionID string,
	command cor.Command,
) (cmd *PubSubListener, err error) {
	sub := pubsubClient.Subscription(subscriptionID)
	cmd = &PubSubListener{
		client:       pubsubClient,
		subscription: sub,
		command:      command,
	}
	return cmd, nil
}

// SetCommand attaches a command to the listener. The first command attached
// wins; later calls are ignored so the initial wiring is never overwritten.
func (m *PubSubListener) SetCommand(command cor.Command) {
	if m.command == nil {
		m.command = command
	}
}

// Listen starts the asynchronous message receiving process in a background
// goroutine so the server can keep handling API requests. Canceling the
// context stops the listener.
func (m *PubSubListener) Listen(ctx context.Context) {
	log.Printf("listening: %s", m.subscription)

	go func() {
		tracer := otel.Tracer("message-listener")

		// Receive blocks and invokes the callback for each arriving message.
		err := m.subscription.Receive(ctx, func(_ context.Context, msg *pubsub.Message) {
			spanCtx, span := tracer.Start(ctx, "receive-message")
			span.SetAttributes(attribute.String("msg", string(msg.Data)))

			// Build a fresh chain context carrying the message payload and
			// the tracing context, then hand it to the command.
			chainCtx := cor.NewBaseContext()
			chainCtx.SetContext(spanCtx)
			chainCtx.Add(cor.CtxIn, string(msg.Data))

			m.command.Execute(chainCtx)

			if !chainCtx.HasErrors() {
				span.SetStatus(codes.Ok, "success")
				// Ack tells Pub/Sub the message was fully processed.
				msg.Ack()
			} else {
				span.SetStatus(codes.Error, "failed")
				for _, e := range chainCtx.GetErrors() {
					log.Printf("error executing chain: %v", e)
				}
				// Not acking lets the message be redelivered after the
				// acknowledgement deadline, per the subscription's retry
				// policy and dead-letter configuration.
			}

			span.End()
		})
		if err != nil {
			log.Printf("error receiving data: %v", err)
		}
	}()
}
