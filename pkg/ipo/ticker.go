// pkg/ipo/ticker.go
package ipo

import "strings"

// DeriveTicker 从用户名派生3-4位大写字母代码。
// 辅音优先、元音补足、不够再垫X，同一用户名永远得到同一代码。
func DeriveTicker(username string) string {
	upper := strings.ToUpper(username)
	var consonants, vowels []rune
	for _, r := range upper {
		if r < 'A' || r > 'Z' {
			continue
		}
		switch r {
		case 'A', 'E', 'I', 'O', 'U':
			vowels = append(vowels, r)
		default:
			consonants = append(consonants, r)
		}
	}

	letters := append(consonants, vowels...)
	if len(letters) > 4 {
		letters = letters[:4]
	}
	for len(letters) < 3 {
		letters = append(letters, 'X')
	}
	return string(letters)
}
