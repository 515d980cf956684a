package flow

import (
	"regexp"
	"strings"

	"github.com/hojimahmudov/orderbot/internal/bot/chat"
	"github.com/hojimahmudov/orderbot/internal/bot/gateway"
	"github.com/hojimahmudov/orderbot/internal/model"
)

var (
	phonePattern = regexp.MustCompile(`^\+998\d{9}$`)
	otpPattern   = regexp.MustCompile(`^\d{4,6}$`)
)

func (e *Engine) handleSelectingLocale(c *conv, ev chat.Event) {
	if ev.Kind != chat.EventCallback {
		c.send("Tilni tanlang / Выберите язык", localeKeyboard())
		return
	}
	switch ev.Data {
	case cbLocaleUZ:
		c.sess.Locale = model.LocaleUZ
	case cbLocaleRU:
		c.sess.Locale = model.LocaleRU
	default:
		c.send("Tilni tanlang / Выберите язык", localeKeyboard())
		return
	}

	if c.sess.Authenticated() {
		if err := e.pushLocale(c.ctx, c.identity(), c.sess.Locale); err != nil {
			e.log.Warn("push locale", "identity", c.identity(), "error", err)
		}
		c.sess.State = string(StateMainMenu)
		c.send(loc(c.locale(), "Til o'zgartirildi.", "Язык изменён."), mainMenuKeyboard(c.locale()))
		return
	}

	c.sess.State = string(StateAwaitingAuthChoice)
	c.send(loc(c.locale(),
		"Xush kelibsiz! Davom etish uchun ro'yxatdan o'ting.",
		"Добро пожаловать! Для продолжения пройдите регистрацию."),
		authChoiceKeyboard(c.locale()))
}

func (e *Engine) handleAwaitingAuthChoice(c *conv, ev chat.Event) {
	if ev.Kind != chat.EventCallback || ev.Data != cbStartRegister {
		c.send(loc(c.locale(),
			"Davom etish uchun tugmani bosing.",
			"Нажмите кнопку, чтобы продолжить."),
			authChoiceKeyboard(c.locale()))
		return
	}
	c.sess.State = string(StateChoosingPhoneInput)
	c.send(loc(c.locale(),
		"Telefon raqamingizni qanday kiritasiz?",
		"Как вы введёте номер телефона?"),
		phoneInputKeyboard(c.locale()))
}

func (e *Engine) handleChoosingPhoneInput(c *conv, ev chat.Event) {
	if ev.Kind != chat.EventCallback {
		c.send(loc(c.locale(),
			"Usulni tanlang.", "Выберите способ."),
			phoneInputKeyboard(c.locale()))
		return
	}
	switch ev.Data {
	case cbPhoneShare:
		c.sess.State = string(StateAwaitingPhoneShare)
		c.send(loc(c.locale(),
			"Quyidagi tugma orqali raqamingizni yuboring.",
			"Отправьте свой номер кнопкой ниже."),
			contactRequestKeyboard(c.locale()))
	case cbPhoneManual:
		c.sess.State = string(StateAwaitingManualPhone)
		c.send(loc(c.locale(),
			"Raqamingizni +998XXXXXXXXX ko'rinishida yozing.",
			"Введите номер в формате +998XXXXXXXXX."),
			&chat.Keyboard{RemoveReply: true})
	default:
		c.send(loc(c.locale(),
			"Usulni tanlang.", "Выберите способ."),
			phoneInputKeyboard(c.locale()))
	}
}

// handleAwaitingPhone accepts a phone either as a shared contact or as
// typed text. Typed numbers that do not match the accepted format
// re-prompt without touching the backend; a shared contact is forwarded
// as-is and the backend has the final word.
func (e *Engine) handleAwaitingPhone(c *conv, ev chat.Event) {
	var phone string
	switch ev.Kind {
	case chat.EventContact:
		phone = normalizePhone(ev.Phone)
	case chat.EventText:
		phone = normalizePhone(ev.Text)
		if !phonePattern.MatchString(phone) {
			c.send(loc(c.locale(),
				"Raqam noto'g'ri. +998XXXXXXXXX ko'rinishida yuboring.",
				"Неверный номер. Отправьте в формате +998XXXXXXXXX."), nil)
			return
		}
	default:
		c.send(loc(c.locale(),
			"Telefon raqamini yuboring.",
			"Отправьте номер телефона."), nil)
		return
	}

	if err := e.register(c.ctx, c.identity(), phone, ev.FirstName); err != nil {
		gerr, ok := err.(*gateway.Error)
		if ok && gerr.Transient() {
			c.send(loc(c.locale(),
				"Server javob bermayapti. Raqamni qaytadan yuboring.",
				"Сервер не отвечает. Отправьте номер ещё раз."), nil)
			return
		}
		detail := ""
		if ok {
			detail = gerr.Detail
		}
		if detail == "" {
			detail = loc(c.locale(),
				"Ro'yxatdan o'tib bo'lmadi.",
				"Не удалось зарегистрироваться.")
		}
		clearScratch(c.sess)
		c.sess.State = string(StateEnded)
		c.send(detail, &chat.Keyboard{RemoveReply: true})
		return
	}

	if err := setScratch(c.sess, scratchKindRegistration, registrationScratch{Phone: phone}); err != nil {
		e.log.Error("store registration scratch", "identity", c.identity(), "error", err)
		c.sess.State = string(StateEnded)
		return
	}
	c.sess.State = string(StateAwaitingVerificationCode)
	c.send(loc(c.locale(),
		"Tasdiqlash kodi yuborildi. Kodni kiriting.",
		"Код подтверждения отправлен. Введите код."),
		&chat.Keyboard{RemoveReply: true})
}

func (e *Engine) handleAwaitingVerificationCode(c *conv, ev chat.Event) {
	if ev.Kind != chat.EventText {
		c.send(loc(c.locale(),
			"Kodni matn bilan yuboring.",
			"Отправьте код текстом."), nil)
		return
	}

	code := strings.TrimSpace(ev.Text)
	if !otpPattern.MatchString(code) {
		c.send(loc(c.locale(),
			"Kod 4-6 raqamdan iborat bo'lishi kerak.",
			"Код должен состоять из 4-6 цифр."), nil)
		return
	}

	var scratch registrationScratch
	if !scratchAs(c.sess, scratchKindRegistration, &scratch) {
		c.sess.State = string(StateAwaitingAuthChoice)
		c.send(loc(c.locale(),
			"Ro'yxatdan o'tishni qaytadan boshlang.",
			"Начните регистрацию заново."),
			authChoiceKeyboard(c.locale()))
		return
	}

	reply, err := e.verify(c.ctx, c.identity(), scratch.Phone, code)
	if err != nil {
		gerr, ok := err.(*gateway.Error)
		if ok && gerr.Kind == gateway.ValidationError {
			c.send(loc(c.locale(),
				"Kod noto'g'ri yoki eskirgan. Qaytadan kiriting.",
				"Код неверный или устарел. Введите ещё раз."), nil)
			return
		}
		c.apiError(err)
		return
	}

	c.setCredentials(reply.Access, reply.Refresh)
	clearScratch(c.sess)
	c.sess.State = string(StateMainMenu)
	c.send(loc(c.locale(),
		"Muvaffaqiyatli ro'yxatdan o'tdingiz!",
		"Вы успешно зарегистрированы!"),
		mainMenuKeyboard(c.locale()))
}

// normalizePhone strips separators and restores the leading plus that
// chat clients often drop from shared contacts.
func normalizePhone(raw string) string {
	cleaned := strings.Map(func(r rune) rune {
		switch r {
		case ' ', '-', '(', ')':
			return -1
		}
		return r
	}, strings.TrimSpace(raw))
	if cleaned != "" && !strings.HasPrefix(cleaned, "+") {
		cleaned = "+" + cleaned
	}
	return cleaned
}
