package ledger

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"sync"

	"github.com/cucumber/godog"

	id "custody/pkg/domain"
)

// TestContext is what the ledger steps need from the suite.
type TestContext interface {
	Identity(alias string) (id.Identity, error)
	Do(alias, method, path string, body any) error
	Send(alias, method, path string, body any) (int, []byte, error)
	ExpectStatus(want int) error
	ResponseField(field string) (any, error)
	Decode(v any) error
}

// RegisterSteps registers item registration, transfer and history steps.
func RegisterSteps(ctx *godog.ScenarioContext, tc TestContext) {
	steps := &ledgerSteps{tc: tc}

	ctx.Step(`^"([^"]*)" registers an item named "([^"]*)" described as "([^"]*)"$`, steps.registerItem)
	ctx.Step(`^"([^"]*)" transfers item (\d+) to "([^"]*)" with status "([^"]*)"$`, steps.transfer)
	ctx.Step(`^"([^"]*)" concurrently transfers item (\d+) to "([^"]*)" and "([^"]*)" with status "([^"]*)"$`, steps.concurrentTransfers)

	ctx.Step(`^the item id should be (\d+)$`, steps.itemIDShouldBe)
	ctx.Step(`^item (\d+) should be held by "([^"]*)" with status "([^"]*)"$`, steps.itemShouldBeHeldBy)
	ctx.Step(`^item (\d+) should have (\d+) history entr(?:y|ies)$`, steps.historyLength)
	ctx.Step(`^history entry (\d+) of item (\d+) should be from "([^"]*)" to "([^"]*)" with status "([^"]*)"$`, steps.historyEntry)
	ctx.Step(`^exactly one transfer should succeed and the other should fail with "([^"]*)"$`, steps.oneWinner)
	ctx.Step(`^the total item count should be (\d+)$`, steps.totalItems)
}

type ledgerSteps struct {
	tc       TestContext
	outcomes []outcome
}

type outcome struct {
	status int
	body   []byte
}

type historyBody struct {
	Entries []struct {
		Seq    int          `json:"seq"`
		From   *id.Identity `json:"from"`
		To     id.Identity  `json:"to"`
		Status string       `json:"status"`
	} `json:"entries"`
}

func itemPath(itemID int, suffix string) string {
	return "/items/" + strconv.Itoa(itemID) + suffix
}

func (s *ledgerSteps) registerItem(alias, name, description string) error {
	return s.tc.Do(alias, http.MethodPost, "/items", map[string]string{"name": name, "description": description})
}

func (s *ledgerSteps) transferBody(to, status string) (map[string]string, error) {
	recipient, err := s.tc.Identity(to)
	if err != nil {
		return nil, err
	}
	return map[string]string{"to": recipient.Hex(), "status": status}, nil
}

func (s *ledgerSteps) transfer(alias string, itemID int, to, status string) error {
	body, err := s.transferBody(to, status)
	if err != nil {
		return err
	}
	return s.tc.Do(alias, http.MethodPost, itemPath(itemID, "/transfers"), body)
}

func (s *ledgerSteps) concurrentTransfers(alias string, itemID int, first, second, status string) error {
	var (
		wg    sync.WaitGroup
		start = make(chan struct{})
		errs  = make([]error, 2)
	)
	s.outcomes = make([]outcome, 2)
	for i, to := range []string{first, second} {
		body, err := s.transferBody(to, status)
		if err != nil {
			return err
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			status, raw, err := s.tc.Send(alias, http.MethodPost, itemPath(itemID, "/transfers"), body)
			s.outcomes[i], errs[i] = outcome{status: status, body: raw}, err
		}()
	}
	close(start)
	wg.Wait()
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}

func (s *ledgerSteps) oneWinner(code string) error {
	if len(s.outcomes) != 2 {
		return fmt.Errorf("no concurrent transfers recorded")
	}
	wins, losses := 0, 0
	for _, o := range s.outcomes {
		if o.status == http.StatusOK {
			wins++
			continue
		}
		var body struct {
			Error string `json:"error"`
		}
		if err := json.Unmarshal(o.body, &body); err != nil {
			return fmt.Errorf("decode failed transfer %q: %w", o.body, err)
		}
		if body.Error == code {
			losses++
		}
	}
	if wins != 1 || losses != 1 {
		return fmt.Errorf("expected one success and one %s failure, got %d and %d", code, wins, losses)
	}
	return nil
}

func (s *ledgerSteps) itemIDShouldBe(want int) error {
	got, err := s.tc.ResponseField("id")
	if err != nil {
		return err
	}
	if got != float64(want) {
		return fmt.Errorf("expected item id %d, got %v", want, got)
	}
	return nil
}

func (s *ledgerSteps) itemShouldBeHeldBy(itemID int, alias, status string) error {
	holder, err := s.tc.Identity(alias)
	if err != nil {
		return err
	}
	if err := s.tc.Do(alias, http.MethodGet, itemPath(itemID, ""), nil); err != nil {
		return err
	}
	if err := s.tc.ExpectStatus(http.StatusOK); err != nil {
		return err
	}
	var body struct {
		CurrentHolder id.Identity `json:"current_holder"`
		Status        string      `json:"status"`
	}
	if err := s.tc.Decode(&body); err != nil {
		return err
	}
	if body.CurrentHolder != holder || body.Status != status {
		return fmt.Errorf("expected item %d held by %s at %s, got %s at %s",
			itemID, alias, status, body.CurrentHolder, body.Status)
	}
	return nil
}

func (s *ledgerSteps) history(itemID int) (*historyBody, error) {
	if err := s.tc.Do("admin", http.MethodGet, itemPath(itemID, "/history"), nil); err != nil {
		return nil, err
	}
	if err := s.tc.ExpectStatus(http.StatusOK); err != nil {
		return nil, err
	}
	var body historyBody
	if err := s.tc.Decode(&body); err != nil {
		return nil, err
	}
	return &body, nil
}

func (s *ledgerSteps) historyLength(itemID, want int) error {
	body, err := s.history(itemID)
	if err != nil {
		return err
	}
	if len(body.Entries) != want {
		return fmt.Errorf("expected %d history entries, got %d", want, len(body.Entries))
	}
	return nil
}

func (s *ledgerSteps) historyEntry(seq, itemID int, from, to, status string) error {
	body, err := s.history(itemID)
	if err != nil {
		return err
	}
	if seq < 1 || seq > len(body.Entries) {
		return fmt.Errorf("item %d has no history entry %d", itemID, seq)
	}
	entry := body.Entries[seq-1]

	if from == "none" {
		if entry.From != nil {
			return fmt.Errorf("expected entry %d to have no sender, got %s", seq, entry.From)
		}
	} else {
		sender, err := s.tc.Identity(from)
		if err != nil {
			return err
		}
		if entry.From == nil || *entry.From != sender {
			return fmt.Errorf("expected entry %d from %s, got %v", seq, from, entry.From)
		}
	}
	recipient, err := s.tc.Identity(to)
	if err != nil {
		return err
	}
	if entry.To != recipient || entry.Status != status {
		return fmt.Errorf("expected entry %d to %s at %s, got %s at %s", seq, to, status, entry.To, entry.Status)
	}
	return nil
}

func (s *ledgerSteps) totalItems(want int) error {
	if err := s.tc.Do("admin", http.MethodGet, "/items/count", nil); err != nil {
		return err
	}
	got, err := s.tc.ResponseField("total")
	if err != nil {
		return err
	}
	if got != float64(want) {
		return fmt.Errorf("expected %d items, got %v", want, got)
	}
	return nil
}
