package support

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"time"

	"github.com/MeKo-Tech/epistola/internal/pipeline"
	"github.com/MeKo-Tech/epistola/internal/server"
	"github.com/MeKo-Tech/epistola/internal/testutil"
	"github.com/cucumber/godog"
)

// theAPIServerIsRunning starts the API in-process on the scenario's data.
func (testCtx *TestContext) theAPIServerIsRunning() error {
	return testCtx.startServer(server.Config{CORSOrigin: "*", MaxBodyMB: 1, TimeoutSec: 30})
}

func (testCtx *TestContext) theAPIServerIsRunningWithCORSOrigin(origin string) error {
	return testCtx.startServer(server.Config{CORSOrigin: origin, MaxBodyMB: 1, TimeoutSec: 30})
}

func (testCtx *TestContext) startServer(cfg server.Config) error {
	if testCtx.HTTPServer != nil {
		return errors.New("server already running")
	}
	cfg.PipelineConfig = pipeline.DefaultConfig()
	cfg.PipelineConfig.LanguageDataDir = testCtx.LangDir
	cfg.PipelineConfig.EntityDir = testCtx.EntityDir

	srv, err := server.NewServer(cfg)
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}
	mux := http.NewServeMux()
	srv.SetupRoutes(mux)
	testCtx.HTTPServer = httptest.NewServer(mux)
	return nil
}

func (testCtx *TestContext) do(method, path, contentType, body string) error {
	if testCtx.HTTPServer == nil {
		return errors.New("server is not running")
	}
	req, err := http.NewRequest(method, testCtx.HTTPServer.URL+path, strings.NewReader(body))
	if err != nil {
		return err
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	client := &http.Client{Timeout: 30 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	testCtx.LastHTTPStatusCode = resp.StatusCode
	testCtx.LastHTTPResponse = string(data)
	testCtx.LastHTTPHeaders = make(map[string]string, len(resp.Header))
	for k := range resp.Header {
		testCtx.LastHTTPHeaders[k] = resp.Header.Get(k)
	}
	return nil
}

func (testCtx *TestContext) iGET(path string) error {
	return testCtx.do(http.MethodGet, path, "", "")
}

func (testCtx *TestContext) iPOSTJSONTo(path string, body *godog.DocString) error {
	return testCtx.do(http.MethodPost, path, "application/json", body.Content)
}

func (testCtx *TestContext) iPOSTTheSampleLetterTo(path string) error {
	return testCtx.do(http.MethodPost, path, "application/xml", testutil.SampleTEI)
}

func (testCtx *TestContext) iPOSTADocumentLargerThan1MBTo(path string) error {
	return testCtx.do(http.MethodPost, path, "application/xml", strings.Repeat("<p>x</p>", 200*1024))
}

func (testCtx *TestContext) iMakeAnOPTIONSRequestTo(path string) error {
	return testCtx.do(http.MethodOptions, path, "", "")
}

func (testCtx *TestContext) theResponseStatusShouldBe(statusStr string) error {
	status, err := strconv.Atoi(statusStr)
	if err != nil {
		return err
	}
	if testCtx.LastHTTPStatusCode != status {
		return fmt.Errorf("expected status %d, got %d\nBody: %s", status, testCtx.LastHTTPStatusCode, testCtx.LastHTTPResponse)
	}
	return nil
}

func (testCtx *TestContext) theResponseShouldContain(text string) error {
	if !strings.Contains(testCtx.LastHTTPResponse, text) {
		return fmt.Errorf("response does not contain '%s'\nBody: %s", text, testCtx.LastHTTPResponse)
	}
	return nil
}

func (testCtx *TestContext) theResponseHeaderShouldBe(name, value string) error {
	if got := testCtx.LastHTTPHeaders[http.CanonicalHeaderKey(name)]; got != value {
		return fmt.Errorf("header %s is %q, want %q", name, got, value)
	}
	return nil
}

// RegisterServerSteps registers the HTTP API steps.
func (testCtx *TestContext) RegisterServerSteps(sc *godog.ScenarioContext) {
	sc.Step(`^the API server is running$`, testCtx.theAPIServerIsRunning)
	sc.Step(`^the API server is running with CORS origin "([^"]*)"$`, testCtx.theAPIServerIsRunningWithCORSOrigin)

	sc.Step(`^I GET "([^"]*)"$`, testCtx.iGET)
	sc.Step(`^I POST JSON to "([^"]*)":$`, testCtx.iPOSTJSONTo)
	sc.Step(`^I POST the sample letter to "([^"]*)"$`, testCtx.iPOSTTheSampleLetterTo)
	sc.Step(`^I POST a document larger than 1MB to "([^"]*)"$`, testCtx.iPOSTADocumentLargerThan1MBTo)
	sc.Step(`^I make an OPTIONS request to "([^"]*)"$`, testCtx.iMakeAnOPTIONSRequestTo)

	sc.Step(`^the response status should be (\d+)$`, testCtx.theResponseStatusShouldBe)
	sc.Step(`^the response should contain "([^"]*)"$`, testCtx.theResponseShouldContain)
	sc.Step(`^the response should contain:$`, func(text *godog.DocString) error {
		return testCtx.theResponseShouldContain(text.Content)
	})
	sc.Step(`^the response header "([^"]*)" should be "([^"]*)"$`, testCtx.theResponseHeaderShouldBe)
}
