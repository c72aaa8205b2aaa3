package sim

import (
	"reflect"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/invopop/jsonschema"
	"github.com/moznion/go-optional"
	"gopkg.in/yaml.v2"

	"github.com/RheinXenon/stocksim/internal/sim/cost"
	"github.com/RheinXenon/stocksim/pkg/errors"
)

// Defaults applied when the corresponding config field is absent.
const (
	DefaultInitialCapital = 1_000_000.0
	DefaultLotSize        = 100
	DefaultSettlementLag  = 1
)

// SimulationConfig describes one simulation run.
type SimulationConfig struct {
	InitialCapital float64                    `yaml:"initial_capital" json:"initial_capital" validate:"gt=0" jsonschema:"title=Initial Capital,description=Starting cash for the run,minimum=0"`
	Universe       []string                   `yaml:"universe" json:"universe" validate:"min=1,dive,required" jsonschema:"title=Universe,description=Instruments the run trades"`
	StartTime      optional.Option[time.Time] `yaml:"start_time" json:"start_time" jsonschema:"title=Start Time,description=Optional first trading day of the run"`
	EndTime        optional.Option[time.Time] `yaml:"end_time" json:"end_time" jsonschema:"title=End Time,description=Optional last trading day of the run"`
	CostSchedule   cost.Schedule              `yaml:"cost_schedule" json:"cost_schedule" jsonschema:"title=Cost Schedule,description=Fee schedule applied to fills"`
	CommissionRate float64                    `yaml:"commission_rate" json:"commission_rate" validate:"gte=0" jsonschema:"title=Commission Rate,description=Commission as a fraction of notional,minimum=0"`
	StampDutyRate  float64                    `yaml:"stamp_duty_rate" json:"stamp_duty_rate" validate:"gte=0" jsonschema:"title=Stamp Duty Rate,description=Sell-side stamp duty as a fraction of notional,minimum=0"`
	MinFee         float64                    `yaml:"min_fee" json:"min_fee" validate:"gte=0" jsonschema:"title=Minimum Fee,description=Commission floor per fill,minimum=0"`
	LotSize        int64                      `yaml:"lot_size" json:"lot_size" validate:"gt=0" jsonschema:"title=Lot Size,description=Order quantities must be multiples of this,minimum=1"`
	SettlementLag  int                        `yaml:"settlement_lag" json:"settlement_lag" validate:"gte=0" jsonschema:"title=Settlement Lag,description=Trading days before bought shares become sellable,minimum=0"`
	RiskFreeRate   float64                    `yaml:"risk_free_rate" json:"risk_free_rate" validate:"gte=0" jsonschema:"title=Risk Free Rate,description=Annual risk free rate used by the Sharpe ratio,minimum=0"`
	ResultsFolder  string                     `yaml:"results_folder" json:"results_folder" jsonschema:"title=Results Folder,description=Directory run artifacts are written to"`
}

// UnmarshalYAML implements custom unmarshaling for SimulationConfig, mapping
// absent time bounds to None and filling defaults.
func (c *SimulationConfig) UnmarshalYAML(unmarshal func(interface{}) error) error {
	type plain struct {
		InitialCapital float64       `yaml:"initial_capital"`
		Universe       []string      `yaml:"universe"`
		StartTime      *time.Time    `yaml:"start_time"`
		EndTime        *time.Time    `yaml:"end_time"`
		CostSchedule   cost.Schedule `yaml:"cost_schedule"`
		CommissionRate *float64      `yaml:"commission_rate"`
		StampDutyRate  *float64      `yaml:"stamp_duty_rate"`
		MinFee         *float64      `yaml:"min_fee"`
		LotSize        int64         `yaml:"lot_size"`
		SettlementLag  *int          `yaml:"settlement_lag"`
		RiskFreeRate   float64       `yaml:"risk_free_rate"`
		ResultsFolder  string        `yaml:"results_folder"`
	}

	var config plain
	if err := unmarshal(&config); err != nil {
		return err
	}

	c.InitialCapital = config.InitialCapital
	c.Universe = config.Universe
	c.CostSchedule = config.CostSchedule
	c.LotSize = config.LotSize
	c.RiskFreeRate = config.RiskFreeRate
	c.ResultsFolder = config.ResultsFolder

	if config.StartTime != nil {
		c.StartTime = optional.Some(*config.StartTime)
	}

	if config.EndTime != nil {
		c.EndTime = optional.Some(*config.EndTime)
	}

	if c.InitialCapital == 0 {
		c.InitialCapital = DefaultInitialCapital
	}

	if c.LotSize == 0 {
		c.LotSize = DefaultLotSize
	}

	if config.SettlementLag != nil {
		c.SettlementLag = *config.SettlementLag
	} else {
		c.SettlementLag = DefaultSettlementLag
	}

	if c.CostSchedule == "" {
		c.CostSchedule = cost.ScheduleChinaAShare
	}

	c.CommissionRate = cost.DefaultRates.CommissionRate
	if config.CommissionRate != nil {
		c.CommissionRate = *config.CommissionRate
	}

	c.StampDutyRate = cost.DefaultRates.StampDutyRate
	if config.StampDutyRate != nil {
		c.StampDutyRate = *config.StampDutyRate
	}

	c.MinFee = cost.DefaultRates.MinFee
	if config.MinFee != nil {
		c.MinFee = *config.MinFee
	}

	return nil
}

// Rates returns the fee schedule parameters as cost model rates.
func (c *SimulationConfig) Rates() cost.Rates {
	return cost.Rates{
		CommissionRate: c.CommissionRate,
		StampDutyRate:  c.StampDutyRate,
		MinFee:         c.MinFee,
	}
}

// ParseConfig parses and validates a YAML simulation config.
func ParseConfig(data []byte) (SimulationConfig, error) {
	var config SimulationConfig
	if err := yaml.Unmarshal(data, &config); err != nil {
		return SimulationConfig{}, errors.Wrap(errors.ErrCodeInvalidConfiguration,
			"failed to parse simulation config", err)
	}

	if err := config.Validate(); err != nil {
		return SimulationConfig{}, err
	}

	return config, nil
}

// Validate checks the config against its field constraints.
func (c *SimulationConfig) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfiguration, "invalid simulation config", err)
	}

	if c.StartTime.IsSome() && c.EndTime.IsSome() && c.EndTime.Unwrap().Before(c.StartTime.Unwrap()) {
		return errors.New(errors.ErrCodeInvalidConfiguration, "end_time is before start_time")
	}

	return nil
}

// GenerateSchema generates a JSON schema for the SimulationConfig.
func (c *SimulationConfig) GenerateSchema() *jsonschema.Schema {
	reflector := jsonschema.Reflector{
		RequiredFromJSONSchemaTags: true,
		ExpandedStruct:             true,
		AllowAdditionalProperties:  false,
		Mapper: func(t reflect.Type) *jsonschema.Schema {
			if t == reflect.TypeOf(optional.Option[time.Time]{}) {
				return &jsonschema.Schema{
					Type:   "string",
					Format: "date-time",
				}
			}

			return nil
		},
	}

	return reflector.Reflect(c)
}

// GenerateSchemaJSON renders the config schema as indented JSON.
func (c *SimulationConfig) GenerateSchemaJSON() (string, error) {
	schema := c.GenerateSchema()

	data, err := schema.MarshalJSON()
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeUnknown, "failed to marshal config schema", err)
	}

	return string(data), nil
}
