// mechsim is a small CLI around the dynamics library: it loads a mechanism
// from a URDF file, optionally seeds the state from a YAML scenario, and
// integrates the equations of motion with fixed-step RK4, reporting energy
// along the way.
package main

import (
	"fmt"
	"os"

	"github.com/edaniels/golog"
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/mechdyn/mechdyn/dynamics"
	"github.com/mechdyn/mechdyn/urdf"
	"github.com/mechdyn/mechdyn/utils"
)

var (
	urdfFile     string
	scenarioFile string
	duration     float64
	dt           float64
	logEvery     int
)

// Scenario seeds a simulation: initial configuration and velocity per joint.
// Revolute joint angles are given in degrees.
type Scenario struct {
	Joints map[string]ScenarioJoint `yaml:"joints"`
}

// ScenarioJoint is one joint's initial conditions.
type ScenarioJoint struct {
	PositionDeg []float64 `yaml:"position_deg"`
	Velocity    []float64 `yaml:"velocity"`
}

func main() {
	rootCmd := &cobra.Command{
		Use:   "mechsim",
		Short: "rigid-body mechanism dynamics simulator",
	}

	simulateCmd := &cobra.Command{
		Use:   "simulate",
		Short: "integrate a mechanism's passive dynamics",
		RunE:  runSimulate,
	}
	simulateCmd.Flags().StringVar(&urdfFile, "urdf", "", "URDF file describing the mechanism")
	simulateCmd.Flags().StringVar(&scenarioFile, "scenario", "", "YAML file with initial joint positions/velocities")
	simulateCmd.Flags().Float64Var(&duration, "duration", 5.0, "simulated time in seconds")
	simulateCmd.Flags().Float64Var(&dt, "dt", 1e-3, "integration timestep in seconds")
	simulateCmd.Flags().IntVar(&logEvery, "log-every", 1000, "log state every N steps")
	if err := simulateCmd.MarkFlagRequired("urdf"); err != nil {
		panic(err)
	}
	rootCmd.AddCommand(simulateCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func runSimulate(cmd *cobra.Command, args []string) error {
	logger := golog.NewDevelopmentLogger("mechsim")

	mech, err := urdf.ParseFile(urdfFile, r3.Vector{Z: -9.81})
	if err != nil {
		return err
	}
	logger.Infow("mechanism loaded",
		"name", mech.Name(),
		"bodies", len(mech.Bodies())-1,
		"joints", len(mech.Joints()),
		"velocity coordinates", mech.VelocityDimension(),
	)

	state := dynamics.NewMechanismState(mech)
	if scenarioFile != "" {
		if err := applyScenario(state, scenarioFile); err != nil {
			return err
		}
	}

	e0 := state.KineticEnergy() + state.PotentialEnergy()
	steps := int(duration / dt)
	x := state.StateVector()
	for step := 0; step < steps; step++ {
		x, err = rk4Step(state, x, dt)
		if err != nil {
			return errors.Wrapf(err, "integration failed at t=%.4f", float64(step)*dt)
		}
		if (step+1)%logEvery == 0 {
			if err := state.SetStateVector(x); err != nil {
				return err
			}
			logger.Infow("state",
				"t", float64(step+1)*dt,
				"kinetic", state.KineticEnergy(),
				"potential", state.PotentialEnergy(),
			)
		}
	}
	if err := state.SetStateVector(x); err != nil {
		return err
	}
	e1 := state.KineticEnergy() + state.PotentialEnergy()
	logger.Infow("done", "simulated", duration, "energy drift", e1-e0)
	return nil
}

func applyScenario(state *dynamics.MechanismState, path string) error {
	//nolint:gosec
	data, err := os.ReadFile(path)
	if err != nil {
		return errors.Wrap(err, "failed to read scenario file")
	}
	var sc Scenario
	if err := yaml.Unmarshal(data, &sc); err != nil {
		return errors.Wrap(err, "failed to parse scenario file")
	}
	for name, init := range sc.Joints {
		joint, err := state.Mechanism().FindJoint(name)
		if err != nil {
			return err
		}
		if init.PositionDeg != nil {
			q := make([]float64, len(init.PositionDeg))
			for i, deg := range init.PositionDeg {
				q[i] = utils.DegToRad(deg)
			}
			if err := state.SetJointConfiguration(joint, q); err != nil {
				return err
			}
		}
		if init.Velocity != nil {
			if err := state.SetJointVelocity(joint, init.Velocity); err != nil {
				return err
			}
		}
	}
	return nil
}

// rk4Step advances the flat state vector one classical Runge-Kutta step
// under zero applied torque.
func rk4Step(state *dynamics.MechanismState, x []float64, h float64) ([]float64, error) {
	deriv := func(y []float64) ([]float64, error) {
		if err := state.SetStateVector(y); err != nil {
			return nil, err
		}
		return state.TimeDerivative(nil, nil)
	}

	k1, err := deriv(x)
	if err != nil {
		return nil, err
	}
	k2, err := deriv(axpy(x, k1, h/2))
	if err != nil {
		return nil, err
	}
	k3, err := deriv(axpy(x, k2, h/2))
	if err != nil {
		return nil, err
	}
	k4, err := deriv(axpy(x, k3, h))
	if err != nil {
		return nil, err
	}

	out := make([]float64, len(x))
	for i := range out {
		out[i] = x[i] + h/6*(k1[i]+2*k2[i]+2*k3[i]+k4[i])
	}
	return out, nil
}

func axpy(x, d []float64, h float64) []float64 {
	out := make([]float64, len(x))
	for i := range out {
		out[i] = x[i] + h*d[i]
	}
	return out
}
