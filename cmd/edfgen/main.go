// Command edfgen generates global-EDF multiprocessor schedulability
// datasets: random platforms and task tables, decided by recursive
// subset-decomposition search backed by a discrete-event simulator.
package main

import "os"

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
