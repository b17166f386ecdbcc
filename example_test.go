package twolc_test

import (
	"context"
	"fmt"

	"github.com/aretw0/twolc"
	"github.com/aretw0/twolc/pkg/adapters/memory"
	"github.com/aretw0/twolc/pkg/domain"
)

// ExampleCompiler_CompileScriptAndGetStorableRules compiles an in-memory
// grammar into one transducer per rule.
func ExampleCompiler_CompileScriptAndGetStorableRules() {
	grammar := `
Alphabet a:b ;
Rules
"a is b after x" a:b <=> x _ ;
`
	rules, err := twolc.New().CompileScriptAndGetStorableRules(context.Background(), "demo", grammar, domain.Config{})
	if err != nil {
		fmt.Println("error:", err)
		return
	}
	r := rules[0]
	fmt.Println(r.Name)
	fmt.Println(r.Accepts([]domain.Pair{domain.Identity("x"), {Lex: "a", Surf: "b"}}))
	fmt.Println(r.Accepts([]domain.Pair{domain.Identity("x"), domain.Identity("a")}))
	// Output:
	// a is b after x
	// true
	// false
}

// ExampleCompiler_Compile shows the status-code surface with an in-memory store.
func ExampleCompiler_Compile() {
	store := memory.NewStore()
	c := twolc.New(twolc.WithStore(store))

	status := c.Compile(context.Background(), twolc.ScriptSource("demo", `Rules "r" a:b => x _ ;`), domain.Config{})
	names, _ := store.List(context.Background())
	fmt.Println(status, names)
	// Output:
	// 0 [demo]
}
