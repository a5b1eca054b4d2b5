// Package openai implements ports.Generator on top of the OpenAI chat completion API.
//
// The model is asked for a JSON object matching ports.GenerateResponse. Answers that are
// not valid JSON are passed through as plain text so the controller can still show them.
package openai
