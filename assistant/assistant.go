// Package assistant answers menu questions by grounding a generative
// text model on the active menu. There is no Go client for the API in
// use, so the call is a plain JSON POST.
package assistant

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/dgavriliu/lataverna/core/menu"
	"github.com/jmoiron/sqlx"
)

type Client struct {
	apiKey string
	url    string
	http   *http.Client
}

func NewClient(apiKey, url string, timeout time.Duration) *Client {
	return &Client{
		apiKey: apiKey,
		url:    url,
		http:   &http.Client{Timeout: timeout},
	}
}

// buildContext flattens the active menu into the prompt the model is
// grounded on.
func buildContext(sections []menu.Section) string {
	var b strings.Builder
	b.WriteString("You are the menu assistant of the restaurant La Taverna. ")
	b.WriteString("Answer only questions about the menu below: dishes, prices, recommendations. ")
	b.WriteString("Be brief and friendly. If asked about something else, say you only know the menu.\n\nMENU:\n")

	for _, s := range sections {
		fmt.Fprintf(&b, "\n%s:\n", s.Name)
		for _, p := range s.Products {
			fmt.Fprintf(&b, "- %s: %s lei", p.Name, p.Price)
			if p.Description != "" {
				fmt.Fprintf(&b, " (%s)", p.Description)
			}
			b.WriteString("\n")
		}
	}
	return b.String()
}

type generateRequest struct {
	Contents []content `json:"contents"`
}

type content struct {
	Role  string `json:"role,omitempty"`
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text"`
}

type generateResponse struct {
	Candidates []struct {
		Content content `json:"content"`
	} `json:"candidates"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// Ask sends the grounded prompt plus the user's question and returns the
// model's reply. No retry; a failure surfaces to the caller as-is.
func (c *Client) Ask(ctx context.Context, sections []menu.Section, question string) (string, error) {
	req := generateRequest{
		Contents: []content{
			{Parts: []part{{Text: buildContext(sections)}}},
			{Role: "user", Parts: []part{{Text: question}}},
		},
	}

	body, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("encoding request: %w", err)
	}

	hr, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url+"?key="+c.apiKey, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("building request: %w", err)
	}
	hr.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(hr)
	if err != nil {
		return "", fmt.Errorf("calling text api: %w", err)
	}
	defer resp.Body.Close()

	var out generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decoding text api response: %w", err)
	}

	if out.Error != nil {
		return "", fmt.Errorf("text api: %s", out.Error.Message)
	}
	if len(out.Candidates) == 0 || len(out.Candidates[0].Content.Parts) == 0 {
		return "", errors.New("text api returned no candidates")
	}

	return out.Candidates[0].Content.Parts[0].Text, nil
}

// FetchMenu loads the grounding data for a conversation turn.
func FetchMenu(ctx context.Context, db *sqlx.DB) ([]menu.Section, error) {
	return menu.FetchSections(ctx, db, "")
}
