// Package infra contains technical adapters: LLM providers, the Google
// Places finder, ElevenLabs speech, websocket and MQTT observers, metrics
// exporters and Sentry. These packages depend only on the interfaces
// defined in the core packages.
package infra
