//go:build !race

package padlock

func passwordHashCost() int {
	return 12
}
