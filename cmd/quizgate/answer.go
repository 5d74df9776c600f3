package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/at-ishikawa/quizgate/internal/inference"
	"github.com/at-ishikawa/quizgate/internal/inference/gemini"
	"github.com/at-ishikawa/quizgate/internal/quiz"
)

func newAnswerCommand() *cobra.Command {
	var outputJSON bool

	command := &cobra.Command{
		Use:   "answer <file>",
		Short: "Answer the questions in a JSON or YAML file",
		Long: `Reads {"questions": [...]} or a single question object from a JSON or YAML file
("-" reads JSON from stdin) and answers it with one model call, like POST /api/answer.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return fmt.Errorf("failed to load configuration: %w", err)
			}

			payload, err := readPayload(args[0], cmd.InOrStdin())
			if err != nil {
				return fmt.Errorf("readPayload(%s) > %w", args[0], err)
			}

			var client inference.Client
			if cfg.Gemini.HasUsableAPIKey() {
				geminiClient := gemini.NewClient(cfg.Gemini.APIKey, cfg.Gemini.Settings())
				defer func() {
					_ = geminiClient.Close()
				}()
				client = geminiClient
			}

			questions := quiz.Normalize(payload)
			response := quiz.Aggregate(quiz.NewAnswerer(client).Answer(cmd.Context(), questions))

			if outputJSON {
				encoder := json.NewEncoder(cmd.OutOrStdout())
				encoder.SetIndent("", "  ")
				return encoder.Encode(response)
			}
			return printResults(cmd.OutOrStdout(), questions, response)
		},
	}
	command.Flags().BoolVar(&outputJSON, "json", false, "print the response envelope as JSON")

	return command
}

// readPayload decodes the file as YAML when its extension says so, and as JSON otherwise.
func readPayload(path string, stdin io.Reader) (any, error) {
	var (
		content []byte
		err     error
	)
	if path == "-" {
		content, err = io.ReadAll(stdin)
	} else {
		content, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, err
	}

	var payload any
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(content, &payload); err != nil {
			return nil, fmt.Errorf("yaml.Unmarshal > %w", err)
		}
	default:
		decoder := json.NewDecoder(bytes.NewReader(content))
		decoder.UseNumber()
		if err := decoder.Decode(&payload); err != nil {
			return nil, fmt.Errorf("json.Decode > %w", err)
		}
	}
	return payload, nil
}

func printResults(w io.Writer, questions []quiz.Question, response quiz.Response) error {
	if len(response.Results) == 0 {
		_, err := fmt.Fprintln(w, "No questions found.")
		return err
	}

	bold := color.New(color.Bold)
	model := color.New(color.FgGreen)
	fallback := color.New(color.FgYellow)
	for i, result := range response.Results {
		id := "(no id)"
		if result.QuestionID != nil {
			id = *result.QuestionID
		}
		answer := "(none)"
		if result.Answer != nil {
			answer = *result.Answer
		}

		if _, err := bold.Fprintf(w, "%s", id); err != nil {
			return err
		}
		if i < len(questions) && questions[i].Text != "" {
			if _, err := fmt.Fprintf(w, " %s", questions[i].Text); err != nil {
				return err
			}
		}
		if _, err := fmt.Fprintln(w); err != nil {
			return err
		}

		if result.UsedFallback {
			if _, err := fallback.Fprintf(w, "  %s (fallback: %s)\n", answer, result.Source.Error); err != nil {
				return err
			}
			continue
		}
		if _, err := model.Fprintf(w, "  %s\n", answer); err != nil {
			return err
		}
	}

	_, err := fmt.Fprintf(w, "\n%d answered, %d fallback\n",
		len(response.Results)-response.FallbackCount(), response.FallbackCount())
	return err
}
