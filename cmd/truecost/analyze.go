package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/anime-shed/truecost-inspector-go/internal/config"
	"github.com/anime-shed/truecost-inspector-go/internal/container"
	"github.com/anime-shed/truecost-inspector-go/internal/costing"
	"github.com/anime-shed/truecost-inspector-go/internal/imagesource"
	"github.com/anime-shed/truecost-inspector-go/internal/logger"
	"github.com/anime-shed/truecost-inspector-go/pkg/models"
)

func runAnalyze(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
	defer cancel()

	src, err := sourceFromArg(args[0])
	if err != nil {
		return err
	}

	var result any
	if serverURL != "" {
		result, err = analyzeRemote(ctx, http.DefaultClient, serverURL, src)
	} else {
		result, err = analyzeLocal(ctx, src)
	}
	if err != nil {
		return err
	}
	return printSummary(cmd.OutOrStdout(), costing.Summarize(result))
}

func sourceFromArg(arg string) (imagesource.Source, error) {
	lower := strings.ToLower(arg)
	if strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://") {
		return imagesource.Source{URL: arg}, nil
	}
	data, err := os.ReadFile(arg)
	if err != nil {
		return imagesource.Source{}, fmt.Errorf("failed to read image: %w", err)
	}
	return imagesource.Source{Raw: data}, nil
}

func analyzeLocal(ctx context.Context, src imagesource.Source) (costing.Document, error) {
	cfg, err := config.LoadFromEnv()
	if err != nil {
		return nil, err
	}
	// Keep the terminal for the summary.
	logger.SetLevel("error")

	c, err := container.NewContainer(ctx, cfg)
	if err != nil {
		return nil, err
	}
	defer c.Close()
	return c.Service().Analyze(ctx, src)
}

// analyzeRemote posts src to a truecost API and returns the raw result body.
func analyzeRemote(ctx context.Context, client *http.Client, baseURL string, src imagesource.Source) (map[string]any, error) {
	req := models.AnalyzeRequest{ImageURL: src.URL}
	if len(src.Raw) > 0 {
		img, err := imagesource.FromBytes(src.Raw)
		if err != nil {
			return nil, err
		}
		req = models.AnalyzeRequest{ImageBase64: img.DataURL()}
	}
	body, err := json.Marshal(req)
	if err != nil {
		return nil, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, strings.TrimRight(baseURL, "/")+"/api/analyze", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var errResp models.ErrorResponse
		if json.Unmarshal(respBody, &errResp) != nil || errResp.Error == "" {
			return nil, fmt.Errorf("server returned status %d", resp.StatusCode)
		}
		return nil, remoteError(resp.StatusCode, errResp)
	}

	var result map[string]any
	if err := json.Unmarshal(respBody, &result); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}
	return result, nil
}

func remoteError(status int, resp models.ErrorResponse) error {
	msg := fmt.Sprintf("analysis failed (%d %s): %s", status, resp.Type, resp.Error)
	if d := resp.Details; d != nil {
		msg += fmt.Sprintf(" [provider status=%d code=%s type=%s]", d.Status, d.Code, d.Type)
	}
	return errors.New(msg)
}
