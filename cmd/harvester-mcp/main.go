package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// crawlResponse mirrors the harvester crawl API response.
type crawlResponse struct {
	Success   bool   `json:"success"`
	RecordID  int64  `json:"record_id"`
	SeedURL   string `json:"seed_url"`
	PageCount int    `json:"page_count"`
	Size      string `json:"size"`
	Tokens    int    `json:"tokens"`
	Content   string `json:"content"`
	Error     *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// recordResponse mirrors the harvester record API response.
type recordResponse struct {
	Success bool `json:"success"`
	Record  *struct {
		ID        int64  `json:"id"`
		SeedURL   string `json:"seed_url"`
		PageCount int    `json:"page_count"`
		Size      string `json:"size"`
		Content   string `json:"content"`
	} `json:"record"`
	Error *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func main() {
	apiURL := os.Getenv("HARVEST_API_URL")
	if apiURL == "" {
		apiURL = "http://127.0.0.1:8080"
	}
	apiKey := os.Getenv("HARVEST_API_KEY")
	if apiKey == "" {
		fmt.Fprintln(os.Stderr, "HARVEST_API_KEY is required")
		os.Exit(1)
	}

	s := server.NewMCPServer(
		"harvester",
		"1.0.0",
		server.WithToolCapabilities(false),
	)

	crawlSiteTool := mcp.NewTool("crawl_site",
		mcp.WithDescription("Harvest a website: fetch the starting URL, follow same-site links up to a depth and page budget, and return the readable text of every page as one document with a '=== Title ===' header per page."),
		mcp.WithString("url",
			mcp.Required(),
			mcp.Description("The seed URL to start from"),
		),
		mcp.WithNumber("max_depth",
			mcp.Description("Link hops to follow from the seed (default: 2, 0 = seed only)"),
		),
		mcp.WithNumber("max_pages",
			mcp.Description("Maximum number of pages to collect (default: 10)"),
		),
		mcp.WithArray("allowed_domains",
			mcp.Description("Domains whose pages (and subdomains) may be followed; default is the seed host only"),
		),
		mcp.WithBoolean("store",
			mcp.Description("Persist the harvest so it can be fetched again with get_record"),
		),
	)
	s.AddTool(crawlSiteTool, handleCrawlSite(apiURL, apiKey, &http.Client{Timeout: 10 * time.Minute}))

	getRecordTool := mcp.NewTool("get_record",
		mcp.WithDescription("Fetch a previously stored harvest by its record ID."),
		mcp.WithNumber("id",
			mcp.Required(),
			mcp.Description("Record ID returned by crawl_site with store=true"),
		),
	)
	s.AddTool(getRecordTool, handleGetRecord(apiURL, apiKey, &http.Client{Timeout: 30 * time.Second}))

	if err := server.ServeStdio(s); err != nil {
		fmt.Fprintf(os.Stderr, "server error: %v\n", err)
		os.Exit(1)
	}
}

// apiDo sends a request to the harvester API and returns the response body.
func apiDo(ctx context.Context, client *http.Client, method, endpoint, apiKey string, payload any) ([]byte, error) {
	var body io.Reader
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("marshal request: %w", err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("X-API-Key", apiKey)

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("API request failed: %w", err)
	}
	defer resp.Body.Close()

	return io.ReadAll(resp.Body)
}

func handleCrawlSite(apiURL, apiKey string, client *http.Client) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		url, err := request.RequireString("url")
		if err != nil {
			return mcp.NewToolResultError("url is required"), nil
		}

		payload := map[string]any{"url": url}
		args := request.GetArguments()
		for _, key := range []string{"max_depth", "max_pages", "allowed_domains", "store"} {
			if v, ok := args[key]; ok {
				payload[key] = v
			}
		}

		respBody, err := apiDo(ctx, client, http.MethodPost, apiURL+"/api/v1/crawl", apiKey, payload)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("crawl request failed: %v", err)), nil
		}

		var crawlResp crawlResponse
		if err := json.Unmarshal(respBody, &crawlResp); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to parse crawl response: %v", err)), nil
		}
		if !crawlResp.Success {
			errMsg := "crawl failed"
			if crawlResp.Error != nil {
				errMsg = fmt.Sprintf("[%s] %s", crawlResp.Error.Code, crawlResp.Error.Message)
			}
			return mcp.NewToolResultError(errMsg), nil
		}

		var sb strings.Builder
		fmt.Fprintf(&sb, "Harvested %s: %d pages, %s, ~%d tokens", crawlResp.SeedURL, crawlResp.PageCount, crawlResp.Size, crawlResp.Tokens)
		if crawlResp.RecordID > 0 {
			fmt.Fprintf(&sb, " (record %d)", crawlResp.RecordID)
		}
		sb.WriteString("\n\n")
		sb.WriteString(crawlResp.Content)

		return mcp.NewToolResultText(sb.String()), nil
	}
}

func handleGetRecord(apiURL, apiKey string, client *http.Client) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		raw, ok := request.GetArguments()["id"].(float64)
		if !ok || raw < 1 {
			return mcp.NewToolResultError("id is required and must be a positive number"), nil
		}

		respBody, err := apiDo(ctx, client, http.MethodGet, fmt.Sprintf("%s/api/v1/records/%d", apiURL, int64(raw)), apiKey, nil)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("record request failed: %v", err)), nil
		}

		var recResp recordResponse
		if err := json.Unmarshal(respBody, &recResp); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to parse record response: %v", err)), nil
		}
		if !recResp.Success || recResp.Record == nil {
			errMsg := "record lookup failed"
			if recResp.Error != nil {
				errMsg = fmt.Sprintf("[%s] %s", recResp.Error.Code, recResp.Error.Message)
			}
			return mcp.NewToolResultError(errMsg), nil
		}

		r := recResp.Record
		return mcp.NewToolResultText(fmt.Sprintf("Record %d: %s (%d pages, %s)\n\n%s",
			r.ID, r.SeedURL, r.PageCount, r.Size, r.Content)), nil
	}
}
