package registry

import (
	"fmt"
	"net/http"

	"github.com/cucumber/godog"

	id "custody/pkg/domain"
)

// TestContext is what the registry steps need from the suite.
type TestContext interface {
	Identity(alias string) (id.Identity, error)
	Do(alias, method, path string, body any) error
	ExpectStatus(want int) error
	ResponseField(field string) (any, error)
	Decode(v any) error
}

// RegisterSteps registers identity registry and workflow steps.
func RegisterSteps(ctx *godog.ScenarioContext, tc TestContext) {
	steps := &registrySteps{tc: tc}

	ctx.Step(`^"([^"]*)" requests registration as a ([A-Za-z]+) named "([^"]*)"$`, steps.requestRegistration)
	ctx.Step(`^the administrator approves "([^"]*)"$`, steps.approve)
	ctx.Step(`^the administrator rejects "([^"]*)"$`, steps.reject)
	ctx.Step(`^"([^"]*)" approves "([^"]*)"$`, steps.approveAs)

	ctx.Step(`^"([^"]*)" should have role "([^"]*)"$`, steps.shouldHaveRole)
	ctx.Step(`^"([^"]*)" should not be registered$`, steps.shouldNotBeRegistered)
	ctx.Step(`^the pending registrations should be empty$`, steps.noPending)
	ctx.Step(`^the pending registrations should contain only "([^"]*)"$`, steps.onlyPending)
}

type registrySteps struct {
	tc TestContext
}

func (s *registrySteps) path(alias, suffix string) (string, error) {
	identity, err := s.tc.Identity(alias)
	if err != nil {
		return "", err
	}
	return "/registrations/" + identity.Hex() + suffix, nil
}

func (s *registrySteps) requestRegistration(alias, role, name string) error {
	return s.tc.Do(alias, http.MethodPost, "/registrations", map[string]string{"role": role, "name": name})
}

func (s *registrySteps) approve(alias string) error {
	return s.approveAs("admin", alias)
}

func (s *registrySteps) approveAs(caller, alias string) error {
	path, err := s.path(alias, "/approve")
	if err != nil {
		return err
	}
	return s.tc.Do(caller, http.MethodPost, path, nil)
}

func (s *registrySteps) reject(alias string) error {
	path, err := s.path(alias, "/reject")
	if err != nil {
		return err
	}
	return s.tc.Do("admin", http.MethodPost, path, nil)
}

func (s *registrySteps) lookup(alias string) error {
	identity, err := s.tc.Identity(alias)
	if err != nil {
		return err
	}
	return s.tc.Do("admin", http.MethodGet, "/participants/"+identity.Hex(), nil)
}

func (s *registrySteps) shouldHaveRole(alias, role string) error {
	if err := s.lookup(alias); err != nil {
		return err
	}
	if err := s.tc.ExpectStatus(http.StatusOK); err != nil {
		return err
	}
	registered, err := s.tc.ResponseField("registered")
	if err != nil {
		return err
	}
	if registered != true {
		return fmt.Errorf("%s is not registered", alias)
	}
	got, err := s.tc.ResponseField("role")
	if err != nil {
		return err
	}
	if got != role {
		return fmt.Errorf("expected %s to have role %s, got %v", alias, role, got)
	}
	return nil
}

func (s *registrySteps) shouldNotBeRegistered(alias string) error {
	if err := s.lookup(alias); err != nil {
		return err
	}
	return s.tc.ExpectStatus(http.StatusNotFound)
}

func (s *registrySteps) pending() ([]id.Identity, error) {
	if err := s.tc.Do("admin", http.MethodGet, "/registrations/pending", nil); err != nil {
		return nil, err
	}
	if err := s.tc.ExpectStatus(http.StatusOK); err != nil {
		return nil, err
	}
	var body struct {
		Pending []id.Identity `json:"pending"`
	}
	if err := s.tc.Decode(&body); err != nil {
		return nil, err
	}
	return body.Pending, nil
}

func (s *registrySteps) noPending() error {
	pending, err := s.pending()
	if err != nil {
		return err
	}
	if len(pending) != 0 {
		return fmt.Errorf("expected no pending registrations, got %v", pending)
	}
	return nil
}

func (s *registrySteps) onlyPending(alias string) error {
	want, err := s.tc.Identity(alias)
	if err != nil {
		return err
	}
	pending, err := s.pending()
	if err != nil {
		return err
	}
	if len(pending) != 1 || pending[0] != want {
		return fmt.Errorf("expected only %s pending, got %v", alias, pending)
	}
	return nil
}
