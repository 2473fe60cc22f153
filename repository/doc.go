// Package repository stores padlock users with Bun.
package repository
