package main

import (
	"fmt"
	"os"
	"strconv"

	flags "github.com/jessevdk/go-flags"
	"github.com/lsds/accbind/srcs/go/log"
	"github.com/lsds/accbind/srcs/go/poisson"
)

type cliOptions struct {
	Omega float64 `short:"w" long:"omega" default:"1" description:"frequency of the manufactured solution sin(omega*pi*x)"`
	Print bool    `short:"p" long:"print" description:"print the exact solution, the system and the computed solution"`
	Args  struct {
		N string `positional-arg-name:"N" description:"number of grid points, at least 3"`
	} `positional-args:"yes" required:"yes"`
}

func main() {
	var opts cliOptions
	if _, err := flags.NewParser(&opts, flags.Default).Parse(); err != nil {
		if flags.WroteHelp(err) {
			os.Exit(0)
		}
		os.Exit(1)
	}
	n, err := strconv.Atoi(opts.Args.N)
	if err != nil {
		log.Exitf("invalid number of points %q", opts.Args.N)
	}
	p := poisson.Problem{N: n, Omega: opts.Omega}
	if err := p.Validate(); err != nil {
		log.Exitf("%v", err)
	}
	if opts.Print {
		printProblem(p)
	}
	u, err := p.Solve(poisson.Thomas{})
	if err != nil {
		log.Exitf("%v", err)
	}
	if opts.Print {
		for _, x := range u {
			fmt.Println(x)
		}
	}
	fmt.Printf(" l infinity of Error = %g\n", p.MaxAbsError(u))
}

func printProblem(p poisson.Problem) {
	for i := 0; i < p.N; i++ {
		fmt.Printf("exact %g\n", p.Exact(i))
	}
	s := p.Assemble()
	for _, r := range s.RHS {
		fmt.Printf("r =%g\n", r)
	}
	for i := range s.D {
		fmt.Printf("%g %g %g\n", s.DL[i], s.D[i], s.DU[i])
	}
}
