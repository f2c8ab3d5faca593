// Package pharmaninja provides a Go client for the pharmaninja
// question-answering API.
//
//	client := pharmaninja.New("http://localhost:8080",
//	    pharmaninja.WithAPIKey("secret"),
//	)
//	resp, err := client.Ask(ctx, pharmaninja.AskRequest{
//	    Question: "What is the first-pass effect?",
//	    Stage:    "3rd",
//	})
//
// Answers carry an Origin marker: "generated" answers came from the
// completion model, "fallback" answers surface retrieved course excerpts
// verbatim because generation was unavailable.
package pharmaninja
