package engine

import (
	"fmt"
	"os"

	"github.com/dop251/goja"
)

// loadCostScript compiles a JS file exposing a top-level function
// `cost(num, count)` returning the virtual instruction surcharge for a
// syscall, per SPEC_FULL's cost_script install option. Best-effort per
// spec §7's error-handling taxonomy: a script that fails to compile, or
// whose cost() throws or returns a non-number at call time, degrades to
// the static syscall_cost rather than aborting the run.
func loadCostScript(path string) (costFunc, error) {
	source, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read cost script: %w", err)
	}

	vm := goja.New()

	program, err := goja.Compile(path, string(source), false)
	if err != nil {
		return nil, fmt.Errorf("compile cost script: %w", err)
	}
	if _, err := vm.RunProgram(program); err != nil {
		return nil, fmt.Errorf("run cost script: %w", err)
	}

	costValue := vm.Get("cost")
	costFn, ok := goja.AssertFunction(costValue)
	if !ok {
		return nil, fmt.Errorf("cost script %s does not define function cost(num, count)", path)
	}

	return func(num int64, count uint64) (uint64, bool) {
		result, err := costFn(goja.Undefined(), vm.ToValue(num), vm.ToValue(count))
		if err != nil {
			return 0, false
		}
		switch result.Export().(type) {
		case int64, float64:
			return uint64(result.ToInteger()), true
		}
		return 0, false
	}, nil
}
