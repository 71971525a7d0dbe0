/*
Package ascendia is a dynamic intent-to-workflow orchestration engine for
conversational agents over business APIs.

A turn is one utterance in, one response out. Resolution is layered by
cost: trigger-phrase matching first (no model calls), then dual-model
intent extraction with semantic cross-checking, then consensus plan
synthesis, and finally plain function-calling as the fallback. Synthesized
plans persist, so a domain's common requests converge to the zero-model
trigger path over time; the fallback path records function-call patterns
and suggests recurring ones for promotion into plans.

# Architecture

The engine is hexagonal: the pipeline under internal/ speaks only to the
ports defined in pkg/ports, and adapters supply the edges - Redis or
in-memory persistence, HTTP and MCP transports, the domain API client, and
NATS event publishing. Domains (functions, entities, triggers, persona)
load from loam markdown repositories or YAML directories and are compiled
into schema validators on load.

# Usage

Wire an Engine with model providers and (optionally) replacement stores:

	package main

	import (
		"context"
		"log"
		"os"

		ascendia "github.com/Sam-lateef/Ascendia-booking-sub000"
		"github.com/Sam-lateef/Ascendia-booking-sub000/pkg/domain"
		"github.com/Sam-lateef/Ascendia-booking-sub000/pkg/providers"
	)

	func main() {
		anthropicCfg := providers.DefaultAnthropicConfig()
		anthropicCfg.APIKey = os.Getenv("ANTHROPIC_API_KEY")
		primary, err := providers.NewAnthropic(anthropicCfg)
		if err != nil {
			log.Fatal(err)
		}

		openaiCfg := providers.DefaultOpenAIConfig()
		openaiCfg.APIKey = os.Getenv("OPENAI_API_KEY")
		secondary, err := providers.NewOpenAI(openaiCfg)
		if err != nil {
			log.Fatal(err)
		}

		engine, err := ascendia.New("./domains",
			ascendia.WithModels(primary, secondary, nil),
		)
		if err != nil {
			log.Fatal(err)
		}
		defer engine.Close()

		result, err := engine.Handle(context.Background(), domain.TurnRequest{
			DomainID:  "dental",
			Utterance: "I'd like to book a cleaning next week",
		})
		if err != nil {
			log.Fatal(err)
		}
		log.Println(result.Response)
	}

The cmd/ascendia binary wraps the same Engine behind an HTTP API, an MCP
server and an interactive console.
*/
package ascendia
