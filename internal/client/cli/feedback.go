package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/feedpulse/internal/client/client"
	"github.com/dmitrijs2005/feedpulse/internal/client/guard"
	"github.com/dmitrijs2005/feedpulse/internal/client/session"
	"github.com/dmitrijs2005/feedpulse/internal/client/validation"
)

// protected runs fn only when the guard lets the command through.
func (a *App) protected(ctx context.Context, fn func(ctx context.Context) error) error {
	switch a.guard.Decide() {
	case guard.Wait:
		if err := a.awaitSession(ctx); err != nil {
			return err
		}
		return a.protected(ctx, fn)
	case guard.Redirect:
		fmt.Fprintln(a.out, "Please log in first (login, or signup to create an account).")
		return ErrLoginRequired
	}

	err := fn(ctx)
	if err != nil {
		a.report(ctx, err)
	}
	return err
}

// report prints err for the user. 401s are announced by the session
// listener and not repeated here.
func (a *App) report(ctx context.Context, err error) {
	if errors.Is(err, client.ErrUnauthorized) {
		return
	}
	a.log.Debug(ctx, "command failed", "error", err)
	fmt.Fprintln(a.out, errorMessage(err))
}

func errorMessage(err error) string {
	var verr *validation.Error
	if errors.As(err, &verr) {
		return verr.Error()
	}
	if client.IsUnavailable(err) {
		return session.MsgCannotConnect
	}
	var apiErr *client.APIError
	if errors.As(err, &apiErr) {
		if apiErr.Detail != "" {
			return apiErr.Detail
		}
		if apiErr.Is(client.ErrNotFound) {
			return "Not found."
		}
		return apiErr.Error()
	}
	return err.Error()
}

func (a *App) readFeedback(prompt string) (string, error) {
	return getMultiline(a.reader, prompt, a.out)
}

func (a *App) Submit(ctx context.Context) error {
	return a.protected(ctx, func(ctx context.Context) error {
		text, err := a.readFeedback("Enter your feedback")
		if err != nil {
			return err
		}
		item, err := a.feedback.Submit(ctx, text)
		if err != nil {
			return err
		}
		fmt.Fprintln(a.out, "Feedback submitted.")
		renderItem(a.out, *item)
		return nil
	})
}

func (a *App) Analyze(ctx context.Context) error {
	return a.protected(ctx, func(ctx context.Context) error {
		text, err := a.readFeedback("Enter text to analyze")
		if err != nil {
			return err
		}
		res, err := a.feedback.Analyze(ctx, text)
		if err != nil {
			return err
		}
		renderSentiment(a.out, *res)
		return nil
	})
}

func (a *App) Story(ctx context.Context) error {
	return a.protected(ctx, func(ctx context.Context) error {
		text, err := a.readFeedback("Enter feedback to turn into a user story")
		if err != nil {
			return err
		}
		st, err := a.feedback.Story(ctx, text)
		if err != nil {
			return err
		}
		renderStory(a.out, *st)
		return nil
	})
}

func (a *App) Preview(ctx context.Context) error {
	return a.protected(ctx, func(ctx context.Context) error {
		text, err := a.readFeedback("Enter feedback to extract insights from")
		if err != nil {
			return err
		}
		in, err := a.feedback.PreviewInsights(ctx, text)
		if err != nil {
			return err
		}
		renderInsights(a.out, *in)
		return nil
	})
}

func (a *App) History(ctx context.Context, reload bool) error {
	return a.protected(ctx, func(ctx context.Context) error {
		items, err := a.feedback.History(ctx, reload)
		if err != nil {
			return err
		}
		renderHistory(a.out, items)
		return nil
	})
}

func (a *App) Show(ctx context.Context, id int64) error {
	return a.protected(ctx, func(ctx context.Context) error {
		item, err := a.feedback.Get(ctx, id)
		if err != nil {
			return err
		}
		renderItem(a.out, *item)
		return nil
	})
}

func (a *App) Edit(ctx context.Context, id int64) error {
	return a.protected(ctx, func(ctx context.Context) error {
		item, err := a.feedback.Get(ctx, id)
		if err != nil {
			return err
		}
		fmt.Fprintf(a.out, "Current text:\n%s\n", item.Text)

		text, err := a.readFeedback("Enter the new text")
		if err != nil {
			return err
		}
		updated, err := a.feedback.Update(ctx, id, text)
		if err != nil {
			return err
		}
		fmt.Fprintln(a.out, "Feedback updated.")
		renderItem(a.out, *updated)
		return nil
	})
}

func (a *App) Delete(ctx context.Context, id int64) error {
	return a.protected(ctx, func(ctx context.Context) error {
		if !confirm(a.reader, fmt.Sprintf("Delete feedback #%d?", id), a.out) {
			fmt.Fprintln(a.out, "Cancelled.")
			return nil
		}
		if err := a.feedback.Delete(ctx, id); err != nil {
			return err
		}
		fmt.Fprintf(a.out, "Feedback #%d deleted.\n", id)
		return nil
	})
}

func (a *App) Insights(ctx context.Context) error {
	return a.protected(ctx, func(ctx context.Context) error {
		in, err := a.feedback.CurrentInsights(ctx)
		if err != nil {
			return err
		}
		renderInsights(a.out, *in)
		return nil
	})
}

// Dashboard prints history and current insights; a failing panel is
// reported in place without hiding the other one.
func (a *App) Dashboard(ctx context.Context) error {
	return a.protected(ctx, func(ctx context.Context) error {
		d := a.feedback.Dashboard(ctx)

		fmt.Fprintln(a.out, "== Recent feedback ==")
		if d.HistoryErr != nil {
			a.report(ctx, d.HistoryErr)
		} else {
			renderHistory(a.out, d.History)
		}

		fmt.Fprintln(a.out, "== Current insights ==")
		if d.InsightsErr != nil {
			a.report(ctx, d.InsightsErr)
		} else if d.Insights != nil {
			renderInsights(a.out, *d.Insights)
		}
		return nil
	})
}
