package persona

import (
	"fmt"
	"strings"
)

// Continuation lines are indented by two spaces.
const promptTemplate = "Act as a rapper.\n" +
	"  You will come up with meaningful lyrics about \"%[1]s\" in the style of \"%[2]s\".\n" +
	"  Use codes of freestyle rap.\n" +
	"  Use multisyllabic rhymes.\n" +
	"  The first rhyme has to be about \"%[2]s\".\n" +
	"  Limit results to 4 sentences."

// BuildPrompt returns the instruction sent to the model for a freestyle
// about topic in the style of the given persona. An empty topic is allowed.
func BuildPrompt(topic string, p Persona) string {
	return fmt.Sprintf(promptTemplate, strings.TrimSpace(topic), p.Name)
}

// Heading is the title shown above a finished freestyle.
func Heading(p Persona) string {
	return fmt.Sprintf("Yo listen, it's %s off the top Freestyle!", p.Name)
}
