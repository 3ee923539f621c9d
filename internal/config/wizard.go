package config

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/manifoldco/promptui"
)

// RunWizard runs an interactive configuration wizard, saves the result to
// path and returns it. personas lists the selectable default personas.
func RunWizard(path string, personas []string) (*Config, error) {
	fmt.Println("Welcome to freestyler! Let's set up the mic.")
	fmt.Println()

	cfg := DefaultConfig()

	// 1. Provider selection.
	providerPrompt := promptui.Select{
		Label: "Select LLM provider",
		Items: []string{"openai", "google", "ollama"},
	}
	_, providerStr, err := providerPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("provider selection: %w", err)
	}
	cfg.Provider = ProviderType(providerStr)

	// 2. Model.
	modelPrompt := promptui.Prompt{
		Label:   "Model",
		Default: ModelFor(cfg.Provider),
	}
	model, err := modelPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("model: %w", err)
	}
	cfg.Model = strings.TrimSpace(model)

	// 3. Default persona.
	if len(personas) > 0 {
		personaPrompt := promptui.Select{
			Label: "Select your favorite rapper",
			Items: personas,
		}
		_, persona, err := personaPrompt.Run()
		if err != nil {
			return nil, fmt.Errorf("persona selection: %w", err)
		}
		cfg.DefaultPersona = persona
	}

	// 4. Server port.
	portPrompt := promptui.Prompt{
		Label:   "HTTP port",
		Default: strconv.Itoa(cfg.Server.Port),
		Validate: func(s string) error {
			n, err := strconv.Atoi(s)
			if err != nil || n <= 0 || n > 65535 {
				return fmt.Errorf("invalid port")
			}
			return nil
		},
	}
	portStr, err := portPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("port: %w", err)
	}
	cfg.Server.Port, _ = strconv.Atoi(portStr)

	// 5. Extra persona files.
	filesPrompt := promptui.Prompt{
		Label:   "Extra persona files (comma-separated globs, leave blank for none)",
		Default: "",
	}
	filesStr, err := filesPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("persona files: %w", err)
	}
	cfg.PersonaFiles = splitAndTrim(filesStr)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if err := cfg.Save(path); err != nil {
		return nil, fmt.Errorf("saving config: %w", err)
	}

	fmt.Printf("\nConfiguration saved to %s\n", path)
	if key := APIKeyEnvVar(cfg.Provider); key != "" {
		fmt.Printf("Remember to export %s before dropping bars.\n", key)
	}
	return cfg, nil
}

// splitAndTrim splits a comma-separated string and trims whitespace.
func splitAndTrim(s string) []string {
	var result []string
	for _, part := range strings.Split(s, ",") {
		if token := strings.TrimSpace(part); token != "" {
			result = append(result, token)
		}
	}
	return result
}
