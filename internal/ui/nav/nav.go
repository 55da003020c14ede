// Пакет nav — нижняя панель навигации веб-интерфейса.
// Пункты описаны таблицами; отрисовка выполняется одним компонентом pages.NavBar.
package nav

// Capability — действие пункта навигации.
type Capability int

const (
	// Navigate — переход по Destination.
	Navigate Capability = iota
	// ProfileMenu — раскрывает меню профиля, перехода нет.
	ProfileMenu
)

// Icon — имя иконки пункта (идентификатор SVG-символа в разметке).
type Icon string

const (
	IconHome     Icon = "home"
	IconAbout    Icon = "accessibility"
	IconRegister Icon = "app-registration"
	IconLogin    Icon = "login"
	IconSearch   Icon = "search"
	IconAdd      Icon = "add-circle"
	IconProfile  Icon = "account-circle"
)

// Item — пункт навигации.
type Item struct {
	Label       string
	Destination string
	Icon        Icon
	Capability  Capability
}

// Пути страниц.
const (
	PathHome     = "/"
	PathAbout    = "/o-mne"
	PathRegister = "/auth/registracia"
	PathLogin    = "/auth/prihlasenie"
	PathCallback = "/auth/callback"
	PathLogout   = "/auth/odhlasenie"
	PathFeed     = "/prispevok"
	PathSearch   = "/hladat"
	PathCreate   = "/pridat"
	PathProfile  = "/profile"

	// ProfileMenuValue — значение пункта меню профиля.
	ProfileMenuValue = "profile-menu"
)

// PublicItems — пункты для анонимного посетителя.
var PublicItems = []Item{
	{Label: "Domov", Destination: PathHome, Icon: IconHome},
	{Label: "O mne", Destination: PathAbout, Icon: IconAbout},
	{Label: "Registrácia", Destination: PathRegister, Icon: IconRegister},
	{Label: "Prihlásenie", Destination: PathLogin, Icon: IconLogin},
}

// AuthItems — пункты для пользователя с сессией.
var AuthItems = []Item{
	{Label: "Domov", Destination: PathFeed, Icon: IconHome},
	{Label: "Hľadať", Destination: PathSearch, Icon: IconSearch},
	{Label: "Pridať", Destination: PathCreate, Icon: IconAdd},
	{Label: "Profil", Destination: ProfileMenuValue, Icon: IconProfile, Capability: ProfileMenu},
}

// MenuItem — пункт меню профиля. Post — действие выполняется POST-формой.
type MenuItem struct {
	Label       string
	Destination string
	Post        bool
}

// ProfileMenuItems — содержимое меню профиля.
var ProfileMenuItems = []MenuItem{
	{Label: "Môj profil", Destination: PathProfile},
	{Label: "Odhlásiť sa", Destination: PathLogout, Post: true},
}

// publicDestinations — страницы, доступные без сессии.
var publicDestinations = map[string]bool{
	PathHome:     true,
	PathAbout:    true,
	PathRegister: true,
	PathLogin:    true,
	PathCallback: true,
}

// Items возвращает таблицу пунктов для состояния аутентификации.
func Items(authenticated bool) []Item {
	if authenticated {
		return AuthItems
	}
	return PublicItems
}

// IsPublic сообщает, доступна ли страница без сессии.
func IsPublic(dest string) bool {
	return publicDestinations[dest]
}

// Resolve определяет, куда ведёт выбор dest.
// ok=false — перехода нет (меню профиля). Анонимный переход на
// непубличную страницу ведёт на регистрацию.
func Resolve(dest string, authenticated bool) (target string, ok bool) {
	if dest == ProfileMenuValue {
		return "", false
	}
	if !authenticated && !IsPublic(dest) {
		return PathRegister, true
	}
	return dest, true
}

// Active сообщает, подсвечивается ли пункт для текущего пути.
func (it Item) Active(path string) bool {
	return it.Capability == Navigate && it.Destination == path
}
