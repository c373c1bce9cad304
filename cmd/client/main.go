package main

import (
	"bufio"
	"fmt"
	"log"
	"os"
	"strings"

	"capec-chatbot-be/internal/config"
	"capec-chatbot-be/pkg/client"

	"github.com/fatih/color"
)

// Interactive terminal client. Commands besides plain queries:
//
//	/ingest     reload the dataset on the server
//	/good, /bad rate the last answer (optional comment after the command)
//	/quit       exit
func main() {
	cfg := config.Load()

	ch := client.NewChannel(cfg.Websocket.URI, cfg.Websocket.RequestTimeout,
		cfg.Chat.ClientHistoryLimit, log.New(os.Stderr, "", log.LstdFlags))
	defer ch.Disconnect()

	color.Cyan("CAPEC chatbot, connected to %s", cfg.Websocket.URI)
	color.White("Ask about attack patterns, or /ingest, /good, /bad, /quit")

	var history [][]string
	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			return
		}
		line := strings.TrimSpace(scanner.Text())

		switch {
		case line == "/quit":
			return
		case line == "/ingest":
			status, errs := ch.SendRequest("ingest_data", map[string]interface{}{})
			printStatus(status, errs)
		case strings.HasPrefix(line, "/good"), strings.HasPrefix(line, "/bad"):
			action := "positive"
			comment := strings.TrimSpace(strings.TrimPrefix(line, "/good"))
			if strings.HasPrefix(line, "/bad") {
				action = "negative"
				comment = strings.TrimSpace(strings.TrimPrefix(line, "/bad"))
			}
			status, errs := ch.SendRequest(action, map[string]interface{}{"comment": comment})
			printStatus(status, errs)
		case line == "":
			continue
		default:
			_, updated := ch.SendRequest("search", map[string]interface{}{
				"query":   line,
				"history": history,
			})
			history = updated
			if len(history) > 0 {
				last := history[len(history)-1]
				color.Green(last[1])
			}
		}
	}
}

// printStatus shows the status line, or the failure message the channel
// tucked into the history when there was no result.
func printStatus(status string, history [][]string) {
	if status != "" {
		color.Yellow(status)
		return
	}
	if len(history) > 0 {
		color.Red(history[len(history)-1][1])
	}
}
