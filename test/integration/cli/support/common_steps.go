package support

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/MeKo-Tech/epistola/internal/testutil"
	"github.com/cucumber/godog"
)

func (testCtx *TestContext) theLanguageCorporaAreAvailable() error {
	if _, err := testCtx.writeFile(testCtx.LangDir, "de.txt", testutil.GermanCorpus); err != nil {
		return err
	}
	_, err := testCtx.writeFile(testCtx.LangDir, "la.txt", testutil.LatinCorpus)
	return err
}

func (testCtx *TestContext) theEntityListsAreAvailable() error {
	if _, err := testCtx.writeFile(testCtx.EntityDir, "extracted_persons.txt", testutil.PersonsList); err != nil {
		return err
	}
	_, err := testCtx.writeFile(testCtx.EntityDir, "extracted_places.txt", testutil.PlacesList)
	return err
}

func (testCtx *TestContext) theSampleLetterIsSavedAs(name string) error {
	_, err := testCtx.writeFile(testCtx.DocDir, name, testutil.SampleTEI)
	return err
}

func (testCtx *TestContext) theGoldLetterIsSavedAs(name string) error {
	_, err := testCtx.writeFile(testCtx.DocDir, name, testutil.GoldTEI)
	return err
}

func (testCtx *TestContext) aDocumentWithContent(name string, content *godog.DocString) error {
	_, err := testCtx.writeFile(testCtx.DocDir, name, content.Content)
	return err
}

// iRunCommand runs the epistola binary with the given arguments.
func (testCtx *TestContext) iRunCommand(command string) error {
	command = testCtx.substituteCommandVariables(command)

	testCtx.LastCommand = command
	testCtx.LastStartTime = time.Now()

	parts, err := splitCommand(command)
	if err != nil {
		return err
	}
	if len(parts) == 0 {
		return errors.New("empty command")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	cmd := exec.CommandContext(ctx, parts[0], parts[1:]...)
	cmd.Dir = testCtx.WorkingDir
	cmd.Env = append(os.Environ(), testCtx.EnvVars...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	err = cmd.Run()
	testCtx.LastStdout = stdout.String()
	testCtx.LastOutput = stdout.String() + stderr.String()
	testCtx.LastError = err
	testCtx.LastDuration = time.Since(testCtx.LastStartTime)

	if err != nil {
		exitError := &exec.ExitError{}
		if errors.As(err, &exitError) {
			testCtx.LastExitCode = exitError.ExitCode()
		} else {
			testCtx.LastExitCode = -1
		}
	} else {
		testCtx.LastExitCode = 0
	}
	return nil
}

// splitCommand splits on whitespace but keeps single-quoted arguments whole.
func splitCommand(command string) ([]string, error) {
	var (
		parts   []string
		current strings.Builder
		quoted  bool
		hasArg  bool
	)
	for _, r := range command {
		switch {
		case r == '\'':
			quoted = !quoted
			hasArg = true
		case !quoted && (r == ' ' || r == '\t'):
			if hasArg {
				parts = append(parts, current.String())
				current.Reset()
				hasArg = false
			}
		default:
			current.WriteRune(r)
			hasArg = true
		}
	}
	if quoted {
		return nil, fmt.Errorf("unbalanced quote in %q", command)
	}
	if hasArg {
		parts = append(parts, current.String())
	}
	return parts, nil
}

func (testCtx *TestContext) theCommandShouldSucceed() error {
	if testCtx.LastExitCode != 0 {
		return fmt.Errorf("command failed with exit code %d: %w\nOutput: %s",
			testCtx.LastExitCode, testCtx.LastError, testCtx.LastOutput)
	}
	return nil
}

func (testCtx *TestContext) theCommandShouldFail() error {
	if testCtx.LastExitCode == 0 {
		return fmt.Errorf("command succeeded when it should have failed\nOutput: %s", testCtx.LastOutput)
	}
	return nil
}

func (testCtx *TestContext) theOutputShouldContain(expectedText string) error {
	if !strings.Contains(testCtx.LastOutput, expectedText) {
		return fmt.Errorf("output does not contain '%s'\nActual output: %s", expectedText, testCtx.LastOutput)
	}
	return nil
}

func (testCtx *TestContext) theOutputShouldNotContain(text string) error {
	if strings.Contains(testCtx.LastOutput, text) {
		return fmt.Errorf("output unexpectedly contains '%s'\nActual output: %s", text, testCtx.LastOutput)
	}
	return nil
}

// jsonPart returns stdout, which carries no log lines.
func (testCtx *TestContext) jsonPart() (string, error) {
	output := strings.TrimSpace(testCtx.LastStdout)
	if strings.HasPrefix(output, "[") || strings.HasPrefix(output, "{") {
		return output, nil
	}
	return "", fmt.Errorf("no JSON found in output: %s", testCtx.LastOutput)
}

func (testCtx *TestContext) theOutputShouldBeValidJSON() error {
	part, err := testCtx.jsonPart()
	if err != nil {
		return err
	}
	var js json.RawMessage
	if err := json.Unmarshal([]byte(part), &js); err != nil {
		return fmt.Errorf("output is not valid JSON: %w\nJSON part: %s", err, part)
	}
	return nil
}

func (testCtx *TestContext) theJSONShouldContain(field string) error {
	part, err := testCtx.jsonPart()
	if err != nil {
		return err
	}
	var data map[string]any
	if err := json.Unmarshal([]byte(part), &data); err != nil {
		return fmt.Errorf("failed to parse JSON object: %w", err)
	}

	current := data
	parts := strings.Split(field, ".")
	for i, p := range parts {
		val, ok := current[p]
		if !ok {
			return fmt.Errorf("field '%s' not found in JSON", strings.Join(parts[:i+1], "."))
		}
		if i == len(parts)-1 {
			return nil
		}
		next, ok := val.(map[string]any)
		if !ok {
			return fmt.Errorf("cannot navigate deeper into non-object field '%s'", p)
		}
		current = next
	}
	return nil
}

func (testCtx *TestContext) theOutputShouldBeValidCSVWithHeader(header string) error {
	output := strings.TrimSpace(testCtx.LastStdout)
	records, err := csv.NewReader(strings.NewReader(output)).ReadAll()
	if err != nil {
		return fmt.Errorf("output is not valid CSV: %w", err)
	}
	if len(records) == 0 || strings.Join(records[0], ",") != header {
		return fmt.Errorf("unexpected CSV header, want %q\nOutput: %s", header, output)
	}
	return nil
}

func (testCtx *TestContext) theErrorShouldMention(errorText string) error {
	if testCtx.LastError == nil && testCtx.LastExitCode == 0 {
		return fmt.Errorf("no error occurred, but expected error containing '%s'", errorText)
	}
	full := testCtx.LastOutput
	if testCtx.LastError != nil {
		full += " " + testCtx.LastError.Error()
	}
	if !strings.Contains(strings.ToLower(full), strings.ToLower(errorText)) {
		return fmt.Errorf("error does not contain '%s'\nActual error: %s", errorText, full)
	}
	return nil
}

func (testCtx *TestContext) theFileShouldContain(path, text string) error {
	path = testCtx.substituteCommandVariables(path)
	if !filepath.IsAbs(path) {
		path = filepath.Join(testCtx.WorkingDir, path)
	}
	data, err := os.ReadFile(path) //nolint:gosec // G304: test-controlled path
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}
	if !strings.Contains(string(data), text) {
		return fmt.Errorf("file %s does not contain '%s'\nContent: %s", path, text, data)
	}
	return nil
}

func (testCtx *TestContext) theFileShouldExist(path string) error {
	path = testCtx.substituteCommandVariables(path)
	if !filepath.IsAbs(path) {
		path = filepath.Join(testCtx.WorkingDir, path)
	}
	if !testutil.Exists(path) {
		return fmt.Errorf("file %s does not exist", path)
	}
	return nil
}

// RegisterCommonSteps registers data setup, command and output steps.
func (testCtx *TestContext) RegisterCommonSteps(sc *godog.ScenarioContext) {
	// Data setup
	sc.Step(`^the language corpora are available$`, testCtx.theLanguageCorporaAreAvailable)
	sc.Step(`^the entity lists are available$`, testCtx.theEntityListsAreAvailable)
	sc.Step(`^the sample letter is saved as "([^"]*)"$`, testCtx.theSampleLetterIsSavedAs)
	sc.Step(`^the gold letter is saved as "([^"]*)"$`, testCtx.theGoldLetterIsSavedAs)
	sc.Step(`^a document "([^"]*)" with content:$`, testCtx.aDocumentWithContent)
	sc.Step(`^the environment variable "([^"]*)" is set to "([^"]*)"$`, func(name, value string) error {
		testCtx.AddEnvVar(name, testCtx.substituteCommandVariables(value))
		return nil
	})

	// Command execution
	sc.Step(`^I run "([^"]*)"$`, testCtx.iRunCommand)
	sc.Step(`^the command should succeed$`, testCtx.theCommandShouldSucceed)
	sc.Step(`^the command should fail$`, testCtx.theCommandShouldFail)

	// Output verification
	sc.Step(`^the output should contain "([^"]*)"$`, testCtx.theOutputShouldContain)
	sc.Step(`^the output should contain:$`, func(text *godog.DocString) error {
		return testCtx.theOutputShouldContain(text.Content)
	})
	sc.Step(`^the output should not contain "([^"]*)"$`, testCtx.theOutputShouldNotContain)
	sc.Step(`^the output should be valid JSON$`, testCtx.theOutputShouldBeValidJSON)
	sc.Step(`^the JSON should contain "([^"]*)"$`, testCtx.theJSONShouldContain)
	sc.Step(`^the output should be valid CSV with header "([^"]*)"$`, testCtx.theOutputShouldBeValidCSVWithHeader)
	sc.Step(`^the error should mention "([^"]*)"$`, testCtx.theErrorShouldMention)

	// Files
	sc.Step(`^the file "([^"]*)" should exist$`, testCtx.theFileShouldExist)
	sc.Step(`^the file "([^"]*)" should contain "([^"]*)"$`, testCtx.theFileShouldContain)
	sc.Step(`^the file "([^"]*)" should contain:$`, func(path string, text *godog.DocString) error {
		return testCtx.theFileShouldContain(path, text.Content)
	})
}
