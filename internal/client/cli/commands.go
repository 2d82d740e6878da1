package cli

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/dmitrijs2005/uniportal/internal/client/dashboard"
	"github.com/dmitrijs2005/uniportal/internal/client/models"
	"github.com/dmitrijs2005/uniportal/internal/client/services"
	"github.com/dmitrijs2005/uniportal/internal/common"
)

// getPassword is an indirection used to facilitate testing.
var getPassword = GetPassword

var errUsage = errors.New("usage")

type usageError string

func (u usageError) Error() string { return "usage: " + string(u) }
func (u usageError) Is(target error) bool { return target == errUsage }

const helpText = `Commands:
  login [username]   logout   whoami   refresh   sessions   revoke <id>
  open [admin|professor|student]   reload   stats   list <collection>
  new <kind>   edit <kind> <id>   cancel   delete <kind> <id>
  enroll <subjectID>   grade <enrollmentID> <grade> [score]
  assign <professorID> <subjectID>...
  help   exit`

// Exec runs one command and reports its outcome. Only exit and quit return
// an error.
func (a *App) Exec(ctx context.Context, cmd string, args []string) error {
	var err error
	switch cmd {
	case "help":
		a.println(helpText)
	case "login":
		err = a.login(ctx, args)
	case "logout":
		err = a.logout(ctx)
	case "whoami":
		a.whoami()
	case "open":
		err = a.open(ctx, args)
	case "reload":
		err = a.reload(ctx)
	case "list", "l":
		err = a.list(args)
	case "stats":
		err = a.stats()
	case "new":
		err = a.create(ctx, args)
	case "edit":
		err = a.edit(ctx, args)
	case "cancel":
		err = a.cancel()
	case "delete":
		err = a.delete(ctx, args)
	case "enroll":
		err = a.enroll(ctx, args)
	case "grade":
		err = a.grade(ctx, args)
	case "assign":
		err = a.assign(ctx, args)
	case "refresh":
		err = a.refresh(ctx)
	case "sessions":
		err = a.sessions(ctx)
	case "revoke":
		err = a.revoke(ctx, args)
	case "exit", "quit":
		return errQuit
	default:
		a.println(errStyle.Render("Unknown command: " + cmd))
	}
	if err != nil {
		a.report(err)
	}
	return nil
}

// view returns the open dashboard. Without a login every dashboard command
// is denied.
func (a *App) view() (*dashboard.View, error) {
	if !a.sess.Authenticated() {
		return nil, dashboard.ErrAccessDenied
	}
	v := a.dash.Current()
	if v == nil {
		return nil, errors.New("no dashboard open: use 'open'")
	}
	return v, nil
}

func (a *App) login(ctx context.Context, args []string) error {
	if a.sess.Authenticated() {
		return errors.New("already logged in: use 'logout' first")
	}
	var username string
	if len(args) > 0 {
		username = args[0]
	} else {
		var err error
		if username, err = GetSimpleText(a.reader, "Username", a.out); err != nil {
			return err
		}
	}
	password, err := getPassword("Password", a.out)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	p, _, err := a.auth.Login(ctx, username, password)
	if errors.Is(err, services.ErrRoleUnresolved) {
		a.println(warnStyle.Render("Logged in, but your role could not be determined. Try 'open' later."))
		return nil
	}
	if err != nil {
		return err
	}
	a.println(okStyle.Render(fmt.Sprintf("Logged in as %s (%s).", p.Username, p.Role)))
	a.openRole(ctx)
	return nil
}

func (a *App) logout(ctx context.Context) error {
	a.dash.Close()
	if err := a.auth.Logout(ctx); err != nil {
		return err
	}
	a.println(okStyle.Render("Logged out."))
	return nil
}

func (a *App) whoami() {
	if !a.sess.Authenticated() {
		a.println("Not logged in.")
		return
	}
	p := a.sess.Profile()
	if !a.sess.Resolved() {
		a.println("Logged in, role unresolved.")
		return
	}
	a.println(fmt.Sprintf("%s (role: %s, dashboard: %s)", p.Username, p.Role, a.sess.Context()))
}

// open without an argument opens the dashboard of the session's role,
// resolving the role first when login could not.
func (a *App) open(ctx context.Context, args []string) error {
	var (
		v   *dashboard.View
		err error
	)
	if len(args) > 0 {
		want, ok := models.ParseContext(args[0])
		if !ok {
			return usageError("open [admin|professor|student]")
		}
		v, err = a.dash.Open(ctx, want)
	} else {
		v, err = a.dash.OpenOwn(ctx)
	}
	if err != nil {
		return err
	}
	a.println(renderOpened(v))
	return nil
}

func (a *App) reload(ctx context.Context) error {
	v, err := a.view()
	if err != nil {
		return err
	}
	if err := v.Reload(ctx); err != nil {
		return err
	}
	a.println(renderOpened(v))
	return nil
}

func (a *App) list(args []string) error {
	v, err := a.view()
	if err != nil {
		return err
	}
	if len(args) != 1 {
		return usageError("list <collection>")
	}
	kind, err := models.ParseKind(args[0])
	if err != nil {
		return err
	}
	coll, _ := kind.Collection()
	if !v.Layout().Has(coll) {
		return fmt.Errorf("%w: %s is not part of this dashboard", dashboard.ErrAccessDenied, coll)
	}
	a.println(renderCollection(v.Snapshot(), coll))
	return nil
}

func (a *App) stats() error {
	v, err := a.view()
	if err != nil {
		return err
	}
	a.println(renderStats(a.sess.Profile(), v))
	return nil
}

func parseKindID(args []string, usage string) (models.Kind, int64, error) {
	if len(args) != 2 {
		return "", 0, usageError(usage)
	}
	kind, err := models.ParseKind(args[0])
	if err != nil {
		return "", 0, err
	}
	id, err := strconv.ParseInt(args[1], 10, 64)
	if err != nil {
		return "", 0, usageError(usage)
	}
	return kind, id, nil
}

func (a *App) create(ctx context.Context, args []string) error {
	v, err := a.view()
	if err != nil {
		return err
	}
	if len(args) != 1 {
		return usageError("new <kind>")
	}
	kind, err := models.ParseKind(args[0])
	if err != nil {
		return err
	}
	if err := v.BeginCreate(kind); err != nil {
		return err
	}
	return a.submit(ctx, v, kind, true)
}

func (a *App) edit(ctx context.Context, args []string) error {
	v, err := a.view()
	if err != nil {
		return err
	}
	kind, id, err := parseKindID(args, "edit <kind> <id>")
	if err != nil {
		return err
	}
	if err := v.BeginEdit(kind, id); err != nil {
		return err
	}
	a.println(faint.Render("Leave a field empty to keep its value."))
	return a.submit(ctx, v, kind, false)
}

// submit fills the form of kind and sends it. A failed submit keeps the
// form state; "cancel" drops it.
func (a *App) submit(ctx context.Context, v *dashboard.View, kind models.Kind, creating bool) error {
	payload, err := a.promptPayload(kind, creating)
	if err != nil {
		return err
	}
	if len(payload) == 0 {
		v.CancelEdit()
		a.println(faint.Render("Nothing to save."))
		return nil
	}
	if _, err := v.Submit(ctx, payload); err != nil {
		return err
	}
	a.println(okStyle.Render("Saved."))
	return nil
}

func (a *App) cancel() error {
	v, err := a.view()
	if err != nil {
		return err
	}
	v.CancelEdit()
	a.println("Cancelled.")
	return nil
}

func (a *App) delete(ctx context.Context, args []string) error {
	v, err := a.view()
	if err != nil {
		return err
	}
	kind, id, err := parseKindID(args, "delete <kind> <id>")
	if err != nil {
		return err
	}
	answer, err := GetSimpleText(a.reader, fmt.Sprintf("Delete %s #%d? (y/N)", kind, id), a.out)
	if err != nil {
		return err
	}
	if !strings.EqualFold(answer, "y") && !strings.EqualFold(answer, "yes") {
		a.println("Not deleted.")
		return nil
	}
	if err := v.Delete(ctx, kind, id); err != nil {
		return err
	}
	a.println(okStyle.Render("Deleted."))
	return nil
}

func (a *App) enroll(ctx context.Context, args []string) error {
	v, err := a.view()
	if err != nil {
		return err
	}
	if len(args) != 1 {
		return usageError("enroll <subjectID>")
	}
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return usageError("enroll <subjectID>")
	}
	if err := v.EnrollSelf(ctx, id); err != nil {
		return err
	}
	a.println(okStyle.Render("Enrolled in " + v.Snapshot().SubjectName(id) + "."))
	return nil
}

func (a *App) grade(ctx context.Context, args []string) error {
	const usage = "grade <enrollmentID> <grade> [score]"
	v, err := a.view()
	if err != nil {
		return err
	}
	if len(args) < 2 || len(args) > 3 {
		return usageError(usage)
	}
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return usageError(usage)
	}
	var score *float64
	if len(args) == 3 {
		s, err := strconv.ParseFloat(args[2], 64)
		if err != nil {
			return fmt.Errorf("%w: %q", models.ErrInvalidScore, args[2])
		}
		score = &s
	}
	if err := v.Grade(ctx, id, models.Grade(args[1]), score); err != nil {
		return err
	}
	a.println(okStyle.Render("Grade saved."))
	return nil
}

func (a *App) assign(ctx context.Context, args []string) error {
	const usage = "assign <professorID> <subjectID>..."
	v, err := a.view()
	if err != nil {
		return err
	}
	if len(args) < 2 {
		return usageError(usage)
	}
	ids := make([]int64, 0, len(args))
	for _, s := range args {
		id, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return usageError(usage)
		}
		ids = append(ids, id)
	}
	res, err := v.AssignSubjects(ctx, ids[0], ids[1:])
	a.println(renderAssign(res))
	return err
}

func (a *App) refresh(ctx context.Context) error {
	if err := a.auth.Refresh(ctx); err != nil {
		return err
	}
	a.println(okStyle.Render("Tokens refreshed."))
	return nil
}

func (a *App) sessions(ctx context.Context) error {
	list, err := a.auth.Sessions(ctx)
	if err != nil {
		return err
	}
	a.println(renderSessions(list))
	return nil
}

func (a *App) revoke(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return usageError("revoke <id>")
	}
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return usageError("revoke <id>")
	}
	if err := a.auth.RevokeSession(ctx, id); err != nil {
		return err
	}
	a.println(okStyle.Render("Session revoked."))
	return nil
}

// report prints err the way the user should see it.
func (a *App) report(err error) {
	var loginErr *services.LoginError
	switch {
	case errors.Is(err, dashboard.ErrAccessDenied):
		a.println(errStyle.Render("Access Denied"))
	case errors.Is(err, services.ErrSessionExpired):
		a.println(errStyle.Render("Your session has expired. Please log in again."))
	case errors.Is(err, services.ErrNotAuthenticated):
		a.println(errStyle.Render("Not logged in."))
	case errors.Is(err, services.ErrRoleUnresolved):
		a.println(warnStyle.Render("Your role could not be determined. Try 'open' later."))
	case errors.Is(err, services.ErrAlreadyEnrolled):
		a.println(warnStyle.Render("You are already enrolled in this subject."))
	case errors.As(err, &loginErr):
		a.println(errStyle.Render(loginErr.Message))
	default:
		a.println(renderError(err))
	}
	a.log.Debug(context.Background(), "command failed", "error", err)
}
