// Package experiment loads and runs Lua experiment plans against the streak
// domain.
//
// A plan script builds a Plan with the global Plan.new constructor, chains
// step methods onto it, and returns it. Each step method returns a handle
// whose expect method attaches expectations to that step:
//
//	local plan = Plan.new("demo")
//	plan:count({n = 4, k = 2}):expect({count = 13})
//	plan:toss({n = 20, seed = 7}):expect({min_heads = 5})
//	return plan
//
// Steps execute in order when the plan is run. Expectations compare the
// step's results against exact values, min_/max_ bounds, and a float
// tolerance.
package experiment

import (
	"fmt"
	"math"
	"path/filepath"
	"strings"

	"github.com/Shopify/go-lua"
)

const (
	planTypeName     = "plan"
	planStepTypeName = "plan_step"
)

// Plan is an ordered list of experiment steps built by a Lua script.
type Plan struct {
	Name  string
	Steps []Step
}

// Step is one experiment operation with its raw arguments.
type Step struct {
	Kind string
	Args map[string]any
}

// planStep is the Lua handle returned by step methods so expectations can be
// chained onto the step that was just added.
type planStep struct {
	plan      *Plan
	stepIndex int
}

// LoadPlanFromFile evaluates a Lua plan script and returns the plan it
// builds. A plan without an explicit name takes the file's base name.
func LoadPlanFromFile(path string) (*Plan, error) {
	state := lua.NewState()
	lua.OpenLibraries(state)

	registerLuaTypes(state)

	if err := lua.LoadFile(state, path, ""); err != nil {
		return nil, fmt.Errorf("load lua: %w", err)
	}
	if err := state.ProtectedCall(0, 1, 0); err != nil {
		return nil, fmt.Errorf("run lua: %w", err)
	}

	if state.TypeOf(-1) != lua.TypeUserData {
		state.Pop(1)
		return nil, fmt.Errorf("plan script must return Plan")
	}
	ud := state.ToUserData(-1)
	state.Pop(1)
	plan, ok := ud.(*Plan)
	if !ok || plan == nil {
		return nil, fmt.Errorf("plan script returned invalid Plan")
	}
	if strings.TrimSpace(plan.Name) == "" {
		plan.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	return plan, nil
}

func registerLuaTypes(state *lua.State) {
	registerPlanType(state)
	registerPlanStepType(state)
	registerPlanConstructor(state)
}

func registerPlanType(state *lua.State) {
	lua.NewMetaTable(state, planTypeName)
	state.NewTable()
	lua.SetFunctions(state, planMethods, 0)
	state.SetField(-2, "__index")
	state.Pop(1)
}

func registerPlanStepType(state *lua.State) {
	lua.NewMetaTable(state, planStepTypeName)
	state.NewTable()
	lua.SetFunctions(state, planStepMethods, 0)
	state.SetField(-2, "__index")
	state.Pop(1)
}

func registerPlanConstructor(state *lua.State) {
	state.NewTable()
	lua.SetFunctions(state, planConstructor, 0)
	state.SetGlobal("Plan")
}

var planConstructor = []lua.RegistryFunction{
	{Name: "new", Function: planNew},
}

func planNew(state *lua.State) int {
	name := lua.OptString(state, 1, "")
	plan := &Plan{Name: name}
	state.PushUserData(plan)
	lua.SetMetaTableNamed(state, planTypeName)
	return 1
}

var planMethods = []lua.RegistryFunction{
	{Name: "toss", Function: planToss},
	{Name: "batch", Function: planBatch},
	{Name: "count", Function: planCount},
	{Name: "either_count", Function: planEitherCount},
	{Name: "fair_probability", Function: planFairProbability},
	{Name: "either_probability", Function: planEitherProbability},
	{Name: "biased_probability", Function: planBiasedProbability},
	{Name: "longest_run", Function: planLongestRun},
}

var planStepMethods = []lua.RegistryFunction{
	{Name: "expect", Function: planStepExpect},
}

func planToss(state *lua.State) int {
	plan := checkPlan(state)
	lua.CheckType(state, 2, lua.TypeTable)
	data := tableToMap(state, 2)
	if value, ok := readInt(data, "n"); !ok || value <= 0 {
		lua.Errorf(state, "toss n must be a positive integer")
		return 0
	}
	return pushPlanStep(state, plan, appendStep(plan, "toss", data))
}

func planBatch(state *lua.State) int {
	plan := checkPlan(state)
	lua.CheckType(state, 2, lua.TypeTable)
	data := tableToMap(state, 2)
	if value, ok := readInt(data, "trials"); !ok || value <= 0 {
		lua.Errorf(state, "batch trials must be a positive integer")
		return 0
	}
	if value, ok := readInt(data, "n"); !ok || value <= 0 {
		lua.Errorf(state, "batch n must be a positive integer")
		return 0
	}
	return pushPlanStep(state, plan, appendStep(plan, "batch", data))
}

func planCount(state *lua.State) int {
	return pushBoundStep(state, "count")
}

func planEitherCount(state *lua.State) int {
	return pushBoundStep(state, "either_count")
}

func planFairProbability(state *lua.State) int {
	return pushBoundStep(state, "fair_probability")
}

func planEitherProbability(state *lua.State) int {
	return pushBoundStep(state, "either_probability")
}

func planBiasedProbability(state *lua.State) int {
	return pushBoundStep(state, "biased_probability")
}

// pushBoundStep appends one of the run-bound steps, which all take the same
// n and k arguments.
func pushBoundStep(state *lua.State, kind string) int {
	plan := checkPlan(state)
	lua.CheckType(state, 2, lua.TypeTable)
	data := tableToMap(state, 2)
	if _, ok := readInt(data, "n"); !ok {
		lua.Errorf(state, "%s n is required", kind)
		return 0
	}
	if _, ok := readInt(data, "k"); !ok {
		lua.Errorf(state, "%s k is required", kind)
		return 0
	}
	return pushPlanStep(state, plan, appendStep(plan, kind, data))
}

func planLongestRun(state *lua.State) int {
	plan := checkPlan(state)
	data := optionalTable(state, 2)
	if faces, ok := data["faces"].(string); ok {
		if _, err := parseFaces(faces); err != nil {
			lua.Errorf(state, "%s", err.Error())
			return 0
		}
	}
	return pushPlanStep(state, plan, appendStep(plan, "longest_run", data))
}

func planStepExpect(state *lua.State) int {
	ud := lua.CheckUserData(state, 1, planStepTypeName)
	handle, ok := ud.(*planStep)
	if !ok || handle == nil {
		lua.Errorf(state, "invalid plan step")
		return 0
	}
	lua.CheckType(state, 2, lua.TypeTable)
	data := tableToMap(state, 2)
	if handle.stepIndex < 0 || handle.stepIndex >= len(handle.plan.Steps) {
		lua.Errorf(state, "plan step is out of range")
		return 0
	}
	step := &handle.plan.Steps[handle.stepIndex]
	if step.Args == nil {
		step.Args = map[string]any{}
	}
	step.Args["expect"] = data
	return 0
}

func checkPlan(state *lua.State) *Plan {
	ud := lua.CheckUserData(state, 1, planTypeName)
	if plan, ok := ud.(*Plan); ok && plan != nil {
		return plan
	}
	lua.ArgumentError(state, 1, "plan expected")
	return nil
}

func pushPlanStep(state *lua.State, plan *Plan, stepIndex int) int {
	state.PushUserData(&planStep{plan: plan, stepIndex: stepIndex})
	lua.SetMetaTableNamed(state, planStepTypeName)
	return 1
}

func appendStep(plan *Plan, kind string, data map[string]any) int {
	if plan == nil {
		return -1
	}
	if data == nil {
		data = map[string]any{}
	}
	plan.Steps = append(plan.Steps, Step{Kind: kind, Args: data})
	return len(plan.Steps) - 1
}

func optionalTable(state *lua.State, index int) map[string]any {
	if state.IsNoneOrNil(index) || state.TypeOf(index) != lua.TypeTable {
		return map[string]any{}
	}
	return tableToMap(state, index)
}

func tableToMap(state *lua.State, index int) map[string]any {
	output := map[string]any{}
	if state.TypeOf(index) != lua.TypeTable {
		return output
	}

	index = state.AbsIndex(index)
	state.PushNil()
	for state.Next(index) {
		if state.TypeOf(-2) == lua.TypeString {
			key, _ := state.ToString(-2)
			output[key] = luaToGo(state, -1)
		}
		state.Pop(1)
	}
	return output
}

func luaToGo(state *lua.State, index int) any {
	switch state.TypeOf(index) {
	case lua.TypeString:
		value, _ := state.ToString(index)
		return value
	case lua.TypeNumber:
		value, _ := state.ToNumber(index)
		return normalizeNumber(value)
	case lua.TypeBoolean:
		return state.ToBoolean(index)
	case lua.TypeTable:
		return tableToGo(state, index)
	case lua.TypeUserData:
		return state.ToUserData(index)
	default:
		return nil
	}
}

func tableToGo(state *lua.State, index int) any {
	if state.TypeOf(index) != lua.TypeTable {
		return nil
	}

	index = state.AbsIndex(index)
	isArray := true
	maxIndex := 0
	count := 0
	state.PushNil()
	for state.Next(index) {
		if isArray {
			if state.TypeOf(-2) != lua.TypeNumber {
				isArray = false
			} else if idx, ok := state.ToInteger(-2); ok && idx > 0 {
				count++
				if idx > maxIndex {
					maxIndex = idx
				}
			} else {
				isArray = false
			}
		}
		state.Pop(1)
	}

	if isArray && count > 0 && maxIndex == count {
		result := make([]any, 0, maxIndex)
		for i := 1; i <= maxIndex; i++ {
			state.RawGetInt(index, i)
			result = append(result, luaToGo(state, -1))
			state.Pop(1)
		}
		return result
	}

	return tableToMap(state, index)
}

func normalizeNumber(value float64) any {
	if math.Mod(value, 1) == 0 {
		return int(value)
	}
	return value
}
