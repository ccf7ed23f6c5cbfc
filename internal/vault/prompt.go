package vault

import (
	"fmt"

	"github.com/Bowery/prompt"

	"github.com/nand0san/panzer-go/internal/panzererr"
)

// Prompter asks the operator for a missing credential value interactively.
// Sensitive names are read with echo suppressed.
type Prompter interface {
	Prompt(name string, sensitive bool) (string, error)
}

// TerminalPrompter reads from the controlling terminal via Bowery/prompt,
// suppressing echo for sensitive names.
type TerminalPrompter struct{}

// Prompt implements Prompter.
func (TerminalPrompter) Prompt(name string, sensitive bool) (string, error) {
	label := fmt.Sprintf("%s: ", name)
	if sensitive {
		return prompt.Password(label)
	}
	return prompt.Basic(label, true)
}

// DisabledPrompter always fails with *panzererr.CredentialMissing; used
// when interactive prompting must not happen (e.g. a daemon with no
// controlling terminal).
type DisabledPrompter struct{}

// Prompt implements Prompter.
func (DisabledPrompter) Prompt(name string, _ bool) (string, error) {
	return "", &panzererr.CredentialMissing{Name: name}
}
