package domain

type Theme string

const (
	ThemeLight  Theme = "light"
	ThemeDark   Theme = "dark"
	ThemeSystem Theme = "system"
)

func (t Theme) Valid() bool {
	return t == ThemeLight || t == ThemeDark || t == ThemeSystem
}

// Toggled переключает светлую и тёмную тему; system считается светлой.
func (t Theme) Toggled() Theme {
	if t == ThemeDark {
		return ThemeLight
	}

	return ThemeDark
}
