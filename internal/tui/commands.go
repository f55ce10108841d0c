package tui

import (
	"context"

	"codeberg.org/studyai/server/internal/client"
	"codeberg.org/studyai/server/internal/study"
	tea "github.com/charmbracelet/bubbletea"
)

// forwards client progress into the bubbletea event loop
type channelObserver chan<- any

func (o channelObserver) OnState(s client.State) {
	o <- stateMsg{state: s}
}

func (o channelObserver) OnDelta(fragment string) {
	o <- deltaMsg{fragment: fragment}
}

// loads the account snapshot for the usage counter
func fetchAccount(c *client.Client, session client.Session) tea.Cmd {
	return func() tea.Msg {
		account, err := c.Account(context.Background(), &session)
		return AccountMsg{account: account, err: err}
	}
}

// runs one study request in the background; progress arrives on the returned channel,
// which is closed after the final resultMsg
func startStudy(ctx context.Context, c *client.Client, session client.Session, mode study.Mode, input string) <-chan any {
	events := make(chan any, 64)

	go func() {
		defer close(events)

		result := c.Study(ctx, &session, mode, input, channelObserver(events))
		events <- resultMsg{result: result, account: session.Account}
	}()

	return events
}

// waits for the next progress event
func waitForEvent(events <-chan any) tea.Cmd {
	return func() tea.Msg {
		msg, ok := <-events
		if !ok {
			return nil
		}

		return msg
	}
}
