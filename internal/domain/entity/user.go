package entity

// UserState фаза отображения результата в чате
type UserState string

const (
	StateIdle            UserState = "idle"             // Ничего не показано
	StateAnalysing       UserState = "analysing"        // Идёт классификация
	StateDisplayedResult UserState = "displayed_result" // Показаны метки
	StateDisplayedEmpty  UserState = "displayed_empty"  // Модель ничего не нашла
	StateDisplayedError  UserState = "displayed_error"  // Классификация не удалась
)

// Тексты, которые видит пользователь.
const (
	DisplayAnalysing = "Analysing..."
	DisplayEmpty     = "Nothing to analysed!"
	DisplayError     = "Can't analyse the object!"
)

// User — сессия бота в одном чате. Хранилище держит по одной сессии на чат.
type User struct {
	ID      int64     // Telegram User ID, открывшего сессию
	ChatID  int64     // Telegram Chat ID, ключ сессии
	State   UserState // Текущая фаза
	Display string    // Текст, показанный пользователю (DisplayState)

	// MessageID — сообщение с DisplayState; результат редактирует его.
	MessageID int

	// ChoosingSource — открыт выбор источника снимка.
	ChoosingSource bool

	// Generation растёт с каждым новым снимком; устаревшие результаты отбрасываются.
	Generation uint64
}

// NewUser создаёт нового пользователя с начальным состоянием
func NewUser(userID, chatID int64) *User {
	return &User{
		ID:     userID,
		ChatID: chatID,
		State:  StateIdle,
	}
}

// OpenChooser отмечает, что пользователь выбирает источник снимка.
func (u *User) OpenChooser() {
	u.ChoosingSource = true
}

// CloseChooser закрывает выбор источника. Показанный текст не меняется.
func (u *User) CloseChooser() {
	u.ChoosingSource = false
}

// BeginAnalysis переводит пользователя в фазу анализа и возвращает номер запроса.
func (u *User) BeginAnalysis() uint64 {
	u.ChoosingSource = false
	u.Generation++
	u.State = StateAnalysing
	u.Display = DisplayAnalysing
	return u.Generation
}

// IsCurrent сообщает, что запрос с номером generation не вытеснен более новым.
func (u *User) IsCurrent(generation uint64) bool {
	return u.Generation == generation
}

// Show фиксирует итоговый текст и фазу.
func (u *User) Show(state UserState, text string) {
	u.State = state
	u.Display = text
}
