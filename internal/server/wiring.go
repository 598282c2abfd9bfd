package server

import (
	"fmt"
	"log/slog"

	"github.com/go-playground/validator/v10"

	"github.com/lib-uoguelph-ca/omeka-s/internal/config"
	"github.com/lib-uoguelph-ca/omeka-s/pkg/acl"
	"github.com/lib-uoguelph-ca/omeka-s/pkg/dispatcher"
	"github.com/lib-uoguelph-ca/omeka-s/pkg/events"
	"github.com/lib-uoguelph-ca/omeka-s/pkg/i18n"
	"github.com/lib-uoguelph-ca/omeka-s/pkg/metrics"
	"github.com/lib-uoguelph-ca/omeka-s/pkg/registry"
	"github.com/lib-uoguelph-ca/omeka-s/pkg/resource"
)

const wiringLogPrefix = "server:wiring"

// BuildRegistry registers a stock resource handler for every configured
// resource. Each handler's post-events are mirrored to pub.
func BuildRegistry(cfg *config.Config, store resource.Store, pub events.Publisher) (*registry.Registry, error) {
	rules, err := resource.LoadRules(cfg.ResourceRulesFile)
	if err != nil {
		return nil, fmt.Errorf("%s - failed to load resource rules: %w", wiringLogPrefix, err)
	}

	reg := registry.New()
	validate := validator.New()
	for _, name := range cfg.Resources {
		h, err := resource.NewHandler(name, store, resource.Options{Rules: rules[name], Validate: validate})
		if err != nil {
			return nil, fmt.Errorf("%s - failed to build %s handler: %w", wiringLogPrefix, name, err)
		}
		if pub != nil {
			events.Mirror(h.EventBus(), name, pub)
		}
		if err := reg.Register(name, h); err != nil {
			return nil, fmt.Errorf("%s - failed to register %s: %w", wiringLogPrefix, name, err)
		}
	}
	for name := range rules {
		if _, err := reg.Get(name); err != nil {
			slog.Warn(fmt.Sprintf("%s - Rules given for unserved resource %s", wiringLogPrefix, name))
		}
	}

	slog.Info(fmt.Sprintf("%s - Registered %d resources: %v", wiringLogPrefix, len(cfg.Resources), reg.Names()))
	return reg, nil
}

// BuildGate loads the role gate from ACL_RULES_FILE, or allows everything
// when none is configured.
func BuildGate(cfg *config.Config) (acl.Gate, error) {
	if cfg.ACLRulesFile == "" {
		slog.Warn(fmt.Sprintf("%s - ACL_RULES_FILE not set, all operations are allowed", wiringLogPrefix))
		return acl.AllowAll{}, nil
	}
	gate, err := acl.LoadRoleGate(cfg.ACLRulesFile)
	if err != nil {
		return nil, fmt.Errorf("%s - failed to load ACL rules: %w", wiringLogPrefix, err)
	}
	return gate, nil
}

// BuildDispatcher wires registry, gate, translator and metrics into a
// dispatcher. m may be nil.
func BuildDispatcher(cfg *config.Config, reg *registry.Registry, m *metrics.Metrics) (*dispatcher.Dispatcher, error) {
	gate, err := BuildGate(cfg)
	if err != nil {
		return nil, err
	}
	tr := i18n.NewCatalogTranslator(i18n.ParseLocale(cfg.Locale))
	slog.Info(fmt.Sprintf("%s - Error messages in %s", wiringLogPrefix, tr.Language()))

	return dispatcher.New(dispatcher.Params{
		Registry:   reg,
		Gate:       gate,
		Translator: tr,
		Metrics:    m,
	}), nil
}
