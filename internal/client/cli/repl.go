package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
)

var errQuit = errors.New("quit")

// execIface is the command surface the REPL drives. App implements it;
// tests provide a stub.
type execIface interface {
	Exec(ctx context.Context, cmd string, args []string) error
}

// runREPL reads commands line by line from reader and dispatches them to a.
// The prompt shows statusFn. The loop ends on EOF, on exit/quit, or when ctx
// is done.
//
//	help                               show the commands
//	login [username]                   sign in
//	logout                             sign out and clear the stored credential
//	whoami                             show the current user
//	open [admin|professor|student]     open a dashboard
//	reload                             reload the open dashboard
//	list <collection>                  show a collection
//	stats                              show the dashboard summary
//	new <kind>                         create an entity
//	edit <kind> <id>                   edit an entity
//	cancel                             abandon the current form
//	delete <kind> <id>                 delete an entity
//	enroll <subjectID>                 enroll yourself in a subject
//	grade <enrollmentID> <grade> [score]
//	assign <professorID> <subjectID>...
//	refresh                            rotate the stored tokens
//	sessions                           list your login sessions
//	revoke <id>                        end a login session
//	exit | quit                        leave the program
func runREPL(ctx context.Context, a execIface, statusFn func() string, reader *bufio.Reader, w io.Writer) {
	for ctx.Err() == nil {
		prompt := "uni"
		if s := statusFn(); s != "" {
			prompt += " (" + s + ")"
		}
		fmt.Fprint(w, prompt+"> ")

		line, err := reader.ReadString('\n')
		if err != nil && line == "" {
			fmt.Fprintln(w)
			return
		}
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}
		if err := a.Exec(ctx, parts[0], parts[1:]); errors.Is(err, errQuit) {
			fmt.Fprintln(w, "Bye!")
			return
		}
	}
}
