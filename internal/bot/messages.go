package bot

// User-facing texts. The bot speaks Spanish; replies use Telegram HTML
// formatting.
const (
	startMessage = "<b>👋 Bienvenido</b>\n\n" +
		"Enviá un mensaje con un gasto incluyendo monto y comentario.\n" +
		"Si la moneda no es ARS podés aclararla.\n\n" +
		"<b>Ejemplos:</b>\n" +
		"<i>café en la facu 150</i>\n" +
		"<i>20.5 USD regalo cumple</i>\n" +
		"<i>netflix 799,99</i>\n\n" +
		"<b>Tips rápidos:</b>\n" +
		"• Editá tu mensaje para modificar un gasto ya cargado.\n" +
		"• Respondé al mensaje del gasto con /delete para eliminarlo.\n" +
		"• Usá /report para descargar tus gastos en CSV.\n" +
		"• Usá /help para ver todos los comandos."

	helpMessage = "📖 <b>Ayuda</b>\n\n" +
		"<b>Comandos disponibles:</b>\n" +
		"• /help — muestra esta ayuda\n" +
		"• /start — introducción rápida\n" +
		"• /report — descarga tus gastos en CSV\n" +
		"• /delete — elimina un gasto (respondiendo al mensaje)\n" +
		"• /categorias — lista tus categorías\n" +
		"• /addcat &lt;nombre&gt; — agrega y vincula una categoría\n" +
		"• /delcat &lt;nombre&gt; — desvincula una categoría\n\n" +
		"<b>Cómo usar el bot:</b>\n" +
		"• <b>Registrar un gasto:</b> simplemente escribí el texto del gasto.\n" +
		"  Ejemplo: <i>almuerzo en restaurante 2500</i>\n" +
		"• <b>Modificar un gasto:</b> editá el mensaje original del gasto.\n" +
		"  El registro anterior se elimina y se vuelve a crear actualizado.\n" +
		"• <b>Eliminar un gasto:</b> respondé al mensaje del gasto con /delete."

	accessDeniedMessage = "🚫 Acceso denegado"

	parseRejectedMessage = "🚫 No se pudo interpretar el mensaje. " +
		"Usá el formato: &lt;monto&gt; &lt;comentario&gt; o &lt;comentario&gt; &lt;monto&gt;."

	extractionFailedMessage = "⚠️ No pude clasificar el gasto en este momento. Probá de nuevo en unos minutos."

	categoryRejectedMessage = "🚫 Esa categoría no está en tu catálogo. Usá /categorias para ver las tuyas."

	genericErrorMessage = "⚠️ Algo salió mal. Probá de nuevo."

	deleteNeedsReplyMessage = "Para eliminar un gasto, respondé al mensaje del gasto con /delete."

	nothingToDeleteMessage = "🤷 No encontré ningún gasto para ese mensaje."

	deletedMessage = "🗑 Gasto eliminado."

	reportCaption = "Acá están tus gastos 👇"
)
