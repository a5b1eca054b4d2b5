// Command onboard runs the conversational onboarding engine as a terminal chat, an HTTP
// API or an MCP server.
package main

func main() {
	Execute()
}
